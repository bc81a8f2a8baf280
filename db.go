package tilecodec

import (
	"crypto/sha1"
	"database/sql"
	"encoding/xml"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/tilecodec/codec"
	"github.com/bodgit/tilecodec/pattern"
	_ "github.com/mattn/go-sqlite3"
)

// FormatDB is a catalog of tile formats backed by a sqlite database.
type FormatDB struct {
	db     *sql.DB
	logger *log.Logger
}

// NewFormatDB opens, creating if necessary, the catalog in file.
func NewFormatDB(file string, logger *log.Logger) (*FormatDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS definition (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, xml BLOB NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS format (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, kind TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, color_depth INTEGER NOT NULL, definition_id INTEGER NOT NULL, FOREIGN KEY(definition_id) REFERENCES definition(id))"); err != nil {
		return nil, err
	}

	return &FormatDB{
		db:     db,
		logger: logger,
	}, nil
}

type xmlFormats struct {
	XMLName xml.Name    `xml:"formats"`
	Formats []xmlFormat `xml:"format"`
}

type xmlFormat struct {
	XMLName       xml.Name   `xml:"format"`
	Name          string     `xml:"name,attr"`
	Kind          string     `xml:"kind,attr"`
	Width         int        `xml:"width,attr"`
	Height        int        `xml:"height,attr"`
	ColorDepth    int        `xml:"colordepth,attr"`
	RowStride     int        `xml:"rowstride,attr,omitempty"`
	ElementStride int        `xml:"elementstride,attr,omitempty"`
	Planes        []xmlPlane `xml:"plane"`
	MergePriority string     `xml:"mergepriority,omitempty"`
	Remap         *xmlRemap  `xml:"remap"`
}

type xmlPlane struct {
	ColorDepth   int    `xml:"colordepth,attr"`
	RowInterlace bool   `xml:"rowinterlace,attr,omitempty"`
	Pattern      string `xml:"pattern,attr,omitempty"`
	Increment    int    `xml:"increment,attr,omitempty"`
}

type xmlRemap struct {
	Size     int      `xml:"size,attr"`
	Patterns []string `xml:"pattern"`
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Fields(s) {
		i, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func formatInts(v []int) string {
	s := make([]string, len(v))
	for i := range v {
		s[i] = strconv.Itoa(v[i])
	}
	return strings.Join(s, " ")
}

func (x *xmlFormat) format() (*codec.Format, error) {
	kind, err := codec.ParseKind(x.Kind)
	if err != nil {
		return nil, err
	}

	f := &codec.Format{
		Name:          x.Name,
		Kind:          kind,
		Width:         x.Width,
		Height:        x.Height,
		ColorDepth:    x.ColorDepth,
		RowStride:     x.RowStride,
		ElementStride: x.ElementStride,
	}

	for _, p := range x.Planes {
		rpp, err := parseInts(p.Pattern)
		if err != nil {
			return nil, err
		}
		f.Planes = append(f.Planes, codec.Plane{
			ColorDepth:       p.ColorDepth,
			RowInterlace:     p.RowInterlace,
			RowPixelPattern:  rpp,
			PatternIncrement: p.Increment,
		})
	}

	if f.MergePriority, err = parseInts(x.MergePriority); err != nil {
		return nil, err
	}

	if x.Remap != nil {
		f.RemapSize = x.Remap.Size
		f.RemapPatterns = x.Remap.Patterns
	}

	return f, nil
}

func newXMLFormat(f *codec.Format) *xmlFormat {
	x := &xmlFormat{
		Name:          f.Name,
		Kind:          f.Kind.String(),
		Width:         f.Width,
		Height:        f.Height,
		ColorDepth:    f.ColorDepth,
		RowStride:     f.RowStride,
		ElementStride: f.ElementStride,
		MergePriority: formatInts(f.MergePriority),
	}

	for _, p := range f.Planes {
		x.Planes = append(x.Planes, xmlPlane{
			ColorDepth:   p.ColorDepth,
			RowInterlace: p.RowInterlace,
			Pattern:      formatInts(p.RowPixelPattern),
			Increment:    p.PatternIncrement,
		})
	}

	if f.Kind == codec.Pattern {
		x.Remap = &xmlRemap{
			Size:     f.RemapSize,
			Patterns: f.RemapPatterns,
		}
	}

	return x
}

// ImportXML imports every format defined in file. Formats that fail to
// validate, including any with a malformed remap pattern, are logged and
// skipped. An existing format with the same name is replaced.
func (db *FormatDB) ImportXML(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return err
	}

	var xmlDB xmlFormats
	if err := xml.Unmarshal(b, &xmlDB); err != nil {
		return err
	}

	for _, x := range xmlDB.Formats {
		format, err := x.format()
		if err != nil {
			db.logger.Printf("Skipping format \"%s\": %s\n", x.Name, err)
			continue
		}

		var ce *pattern.CompileError
		switch err := db.AddFormat(format); {
		case errors.As(err, &ce):
			db.logger.Printf("Skipping format \"%s\", invalid remap pattern: %s\n", x.Name, ce.Reason)
		case errors.Is(err, errInvalidFormat):
			db.logger.Printf("Skipping format \"%s\": %s\n", x.Name, err)
		case err != nil:
			return err
		default:
			db.logger.Printf("Imported format \"%s\"\n", x.Name)
		}
	}

	return nil
}

var errInvalidFormat = errors.New("invalid format")

// AddFormat validates f and stores it, replacing any format with the same
// name.
func (db *FormatDB) AddFormat(f *codec.Format) error {
	if f.Name == "" {
		return fmt.Errorf("%w: no name", errInvalidFormat)
	}
	if err := f.Validate(); err != nil {
		var ce *pattern.CompileError
		if errors.As(err, &ce) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidFormat, err)
	}

	b, err := xml.Marshal(newXMLFormat(f))
	if err != nil {
		return err
	}

	id, err := db.addDefinition(b)
	if err != nil {
		return err
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO format (name, kind, width, height, color_depth, definition_id) VALUES (?, ?, ?, ?, ?, ?)", f.Name, f.Kind.String(), f.Width, f.Height, f.ColorDepth, id); err != nil {
		return err
	}

	// Drop any definition no longer in use
	_, err = db.db.Exec("DELETE FROM definition WHERE id NOT IN (SELECT definition_id FROM format)")
	return err
}

func (db *FormatDB) addDefinition(b []byte) (int64, error) {
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM definition WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO definition (sha1, xml) VALUES (?, ?)", sha, b)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// FindFormat returns the named format, or nil if there is no such format.
func (db *FormatDB) FindFormat(name string) (*codec.Format, error) {
	var b []byte
	switch err := db.db.QueryRow("SELECT d.xml FROM format AS f JOIN definition AS d ON f.definition_id = d.id WHERE f.name = ?", name).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		var x xmlFormat
		if err := xml.Unmarshal(b, &x); err != nil {
			return nil, err
		}
		return x.format()
	default:
		return nil, err
	}
}

// Formats returns the names of all formats in alphabetical order.
func (db *FormatDB) Formats() ([]string, error) {
	rows, err := db.db.Query("SELECT name FROM format ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Close closes the underlying database.
func (db *FormatDB) Close() error {
	return db.db.Close()
}
