package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementHostKnownScheme(t *testing.T) {
	e := &Element{FileURL: "cluster://worker-3.internal/data/run1.dat"}
	require.Equal(t, "worker-3.internal", e.Host())
}

func TestElementHostUnknownSchemeFallsBackToSentinel(t *testing.T) {
	e := &Element{FileURL: "https://example.com/data/run1.dat"}
	require.Equal(t, NoHostSentinel, e.Host())
}

func TestElementHostUnparsableFallsBackToSentinel(t *testing.T) {
	e := &Element{FileURL: "not a url at all ::"}
	require.Equal(t, NoHostSentinel, e.Host())
}

func TestElementCloneIsIndependent(t *testing.T) {
	e := &Element{FileURL: "cluster://host/a.dat", First: 0, Num: 100}
	clone := e.Clone()
	clone.Num = 50
	require.Equal(t, int64(100), e.Num)
	require.Equal(t, int64(50), clone.Num)
}

func TestElementSerializeRoundTripCurrent(t *testing.T) {
	e := &Element{
		FileURL: "cluster://host/a.dat", Directory: "dir", ObjName: "obj", MSD: "msd1",
		First: 10, Num: 90, Offset: 1000, TrueEntries: 500,
		Selection: NewIndexSelection([]int64{1, 2, 3}),
	}
	data, err := e.Serialize()
	require.NoError(t, err)

	got, err := DeserializeElement(data)
	require.NoError(t, err)
	require.False(t, got.WriteV3)
	require.Equal(t, e.FileURL, got.FileURL)
	require.Equal(t, e.Directory, got.Directory)
	require.Equal(t, e.ObjName, got.ObjName)
	require.Equal(t, e.MSD, got.MSD)
	require.Equal(t, e.First, got.First)
	require.Equal(t, e.Num, got.Num)
	require.Equal(t, e.Offset, got.Offset)
	require.Equal(t, e.TrueEntries, got.TrueEntries)
	require.Equal(t, e.Selection.(*IndexSelection).Indices, got.Selection.(*IndexSelection).Indices)
}

func TestElementSerializeRoundTripLegacy(t *testing.T) {
	e := &Element{
		FileURL: "cluster://host/a.dat", Directory: "dir", ObjName: "obj",
		First: 0, Num: -1, WriteV3: true,
	}
	data, err := e.Serialize()
	require.NoError(t, err)

	got, err := DeserializeElement(data)
	require.NoError(t, err)
	require.True(t, got.WriteV3)
	require.Nil(t, got.Selection)
	require.Equal(t, e.FileURL, got.FileURL)
	require.Equal(t, e.Num, got.Num)
}

func TestDeserializeElementRejectsUnknownVersion(t *testing.T) {
	_, err := DeserializeElement([]byte{99, 1, 2, 3})
	require.Error(t, err)
}

func TestDeserializeElementRejectsEmpty(t *testing.T) {
	_, err := DeserializeElement(nil)
	require.Error(t, err)
}
