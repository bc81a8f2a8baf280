/*
Package tilecodec is a library for decoding and encoding retro console tile
graphics stored at arbitrary bit addresses within binary files.

Tile formats are imported from XML definition files into a sqlite catalog
and looked up by name. An Arranger then decodes or encodes a grid of
elements laid out one after another from a base address.
*/
package tilecodec

import (
	"fmt"
	"log"

	"github.com/bodgit/tilecodec/codec"
)

// TileCodec ties a format catalog to a logger.
type TileCodec struct {
	db     *FormatDB
	logger *log.Logger
}

// New opens, creating if necessary, the format catalog in file.
func New(file string, logger *log.Logger) (*TileCodec, error) {
	db, err := NewFormatDB(file, logger)
	if err != nil {
		return nil, err
	}

	return &TileCodec{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the format catalog.
func (t *TileCodec) Close() error {
	return t.db.Close()
}

// ImportXML imports every valid format definition in file.
func (t *TileCodec) ImportXML(file string) error {
	return t.db.ImportXML(file)
}

// Formats returns the names of all formats in the catalog.
func (t *TileCodec) Formats() ([]string, error) {
	return t.db.Formats()
}

// Arranger returns an Arranger of columns by rows elements in the named
// format.
func (t *TileCodec) Arranger(name string, columns, rows int) (*Arranger, error) {
	f, err := t.db.FindFormat(name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("no such format %q", name)
	}

	return NewArranger(f, columns, rows, t.logger)
}

// FindFormat returns the named format, or nil if there is no such format.
func (t *TileCodec) FindFormat(name string) (*codec.Format, error) {
	return t.db.FindFormat(name)
}
