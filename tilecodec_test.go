package tilecodec

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/tilecodec/bitstream"
	"github.com/bodgit/tilecodec/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const definitions = `<?xml version="1.0" encoding="UTF-8"?>
<formats>
  <format name="NES 2bpp" kind="fixed" width="8" height="8" colordepth="2">
    <plane colordepth="1" rowinterlace="true"/>
    <plane colordepth="1" rowinterlace="true"/>
  </format>
  <format name="Genesis 4bpp" kind="flow" width="8" height="8" colordepth="4">
    <plane colordepth="4"/>
    <mergepriority>3 2 1 0</mergepriority>
  </format>
  <format name="Swapped 1bpp" kind="pattern" width="8" height="2" colordepth="1">
    <plane colordepth="1" rowinterlace="true" pattern="7 6 5 4 3 2 1 0"/>
    <remap size="16">
      <pattern>BBBBBBBB</pattern>
      <pattern>AAAAAAAA</pattern>
    </remap>
  </format>
  <format name="Broken remap" kind="pattern" width="8" height="3" colordepth="1">
    <plane colordepth="1"/>
    <remap size="24">
      <pattern>AAAAAAAACCCCCCCCCBBBBBBB</pattern>
    </remap>
  </format>
  <format name="Broken planes" kind="flow" width="8" height="8" colordepth="4">
    <plane colordepth="2"/>
  </format>
  <format name="Broken kind" kind="direct" width="8" height="8" colordepth="1">
    <plane colordepth="1"/>
  </format>
</formats>
`

var nes = &codec.Format{
	Name:       "NES 2bpp",
	Kind:       codec.Fixed,
	Width:      8,
	Height:     8,
	ColorDepth: 2,
	Planes: []codec.Plane{
		{ColorDepth: 1, RowInterlace: true},
		{ColorDepth: 1, RowInterlace: true},
	},
}

func tempDir(t *testing.T) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "tilecodec")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	return dir
}

func tempFile(t *testing.T, b []byte) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(tempDir(t), "rom.bin"))
	require.NoError(t, err)
	t.Cleanup(func() {
		f.Close()
	})

	_, err = f.Write(b)
	require.NoError(t, err)

	return f
}

func newLogger() (*log.Logger, *bytes.Buffer) {
	b := new(bytes.Buffer)
	return log.New(b, "", 0), b
}

func TestImportXML(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "formats.xml")
	require.NoError(t, ioutil.WriteFile(file, []byte(definitions), 0644))

	logger, out := newLogger()
	db, err := NewFormatDB(filepath.Join(dir, "tilecodec.db"), logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ImportXML(file))
	assert.Contains(t, out.String(), "Skipping format \"Broken remap\", invalid remap pattern")
	assert.Contains(t, out.String(), "Skipping format \"Broken planes\"")
	assert.Contains(t, out.String(), "Skipping format \"Broken kind\"")

	names, err := db.Formats()
	require.NoError(t, err)
	assert.Equal(t, []string{"Genesis 4bpp", "NES 2bpp", "Swapped 1bpp"}, names)

	f, err := db.FindFormat("NES 2bpp")
	require.NoError(t, err)
	assert.Equal(t, nes, f)

	f, err = db.FindFormat("Swapped 1bpp")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, codec.Pattern, f.Kind)
	assert.Equal(t, []int{7, 6, 5, 4, 3, 2, 1, 0}, f.Planes[0].RowPixelPattern)
	assert.Equal(t, []string{"BBBBBBBB", "AAAAAAAA"}, f.RemapPatterns)
	assert.Equal(t, 16, f.RemapSize)

	f, err = db.FindFormat("Broken remap")
	require.NoError(t, err)
	assert.Nil(t, f)

	// Importing again reuses the existing definitions
	require.NoError(t, db.ImportXML(file))
	var count int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM definition").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestAddFormat(t *testing.T) {
	logger, _ := newLogger()
	db, err := NewFormatDB(filepath.Join(tempDir(t), "tilecodec.db"), logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AddFormat(nes))

	dup := *nes
	dup.Name = ""
	assert.True(t, errors.Is(db.AddFormat(&dup), errInvalidFormat))

	// Replacing a format drops its old definition
	dup.Name = nes.Name
	dup.MergePriority = []int{1, 0}
	require.NoError(t, db.AddFormat(&dup))

	f, err := db.FindFormat(nes.Name)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, f.MergePriority)

	names, err := db.Formats()
	require.NoError(t, err)
	assert.Equal(t, []string{nes.Name}, names)

	var count int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM definition").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestArranger(t *testing.T) {
	logger, out := newLogger()
	a, err := NewArranger(nes, 2, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, 128, a.StorageSize())

	w, h := a.Bounds()
	assert.Equal(t, 16, w)
	assert.Equal(t, 16, h)

	r := rand.New(rand.NewSource(1))
	grid := a.newGrid()
	for _, row := range grid {
		for x := range row {
			row[x] = byte(r.Intn(4))
		}
	}

	// Room for three and a half elements after the base address
	base := bitstream.NewAddress(1, 3)
	f := tempFile(t, make([]byte, 1+16*3+8))

	skipped, err := a.Encode(f, base, grid)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Contains(t, out.String(), "No room for element 3")

	decoded, blank, err := a.Decode(context.Background(), f, base)
	require.NoError(t, err)
	assert.Equal(t, 1, blank)
	assert.Contains(t, out.String(), "No data for element 3")

	for y := 0; y < 16; y++ {
		if y < 8 {
			assert.Equal(t, grid[y], decoded[y])
		} else {
			assert.Equal(t, grid[y][:8], decoded[y][:8])
			assert.Equal(t, make([]byte, 8), decoded[y][8:])
		}
	}

	_, err = a.Encode(f, base, grid[:15])
	assert.True(t, errors.Is(err, bitstream.ErrInvalidArgument))

	_, err = NewArranger(nes, 0, 1, logger)
	assert.Error(t, err)
}

func TestArrangerResize(t *testing.T) {
	logger, _ := newLogger()

	a, err := NewArranger(nes, 1, 1, logger)
	require.NoError(t, err)
	assert.Equal(t, codec.ErrFixedSize, a.Resize(16, 16))

	flow := *nes
	flow.Kind = codec.Flow
	a, err = NewArranger(&flow, 3, 1, logger)
	require.NoError(t, err)
	require.NoError(t, a.Resize(4, 2))
	assert.Equal(t, 16, a.StorageSize())
	assert.Equal(t, bitstream.NewAddress(4, 0), a.Address(bitstream.NewAddress(0, 0), 2))

	w, h := a.Bounds()
	assert.Equal(t, 12, w)
	assert.Equal(t, 2, h)

	f := tempFile(t, []byte{0xf0, 0x0f, 0xff, 0x00, 0x00, 0x00})
	a.Workers = 1
	grid, blank, err := a.Decode(context.Background(), f, bitstream.NewAddress(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, blank)
	assert.Equal(t, [][]byte{
		{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0},
		{2, 2, 2, 2, 1, 1, 1, 1, 0, 0, 0, 0},
	}, grid)
}

func TestTileCodec(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "formats.xml")
	require.NoError(t, ioutil.WriteFile(file, []byte(definitions), 0644))

	logger, _ := newLogger()
	tc, err := New(filepath.Join(dir, "tilecodec.db"), logger)
	require.NoError(t, err)
	defer tc.Close()

	require.NoError(t, tc.ImportXML(file))

	names, err := tc.Formats()
	require.NoError(t, err)
	assert.Len(t, names, 3)

	f, err := tc.FindFormat("NES 2bpp")
	require.NoError(t, err)
	assert.Equal(t, nes, f)

	a, err := tc.Arranger("Genesis 4bpp", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 256, a.StorageSize())

	rom := tempFile(t, []byte{0x12, 0x34, 0x56, 0x78})
	grid, blank, err := a.Decode(context.Background(), rom, bitstream.NewAddress(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, blank)
	assert.Len(t, grid, 8)

	_, err = tc.Arranger("Missing", 1, 1)
	assert.Error(t, err)
}
