package main

import (
	"context"
	"fmt"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/tilecodec"
	"github.com/bodgit/tilecodec/bitstream"
	tileimage "github.com/bodgit/tilecodec/image"
	"github.com/bodgit/tilecodec/pattern"
	"github.com/urfave/cli/v2"
)

const defaultDB = "tilecodec.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var arrangerFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "format",
		Aliases:  []string{"f"},
		Usage:    "name of the tile format",
		Required: true,
	},
	&cli.Uint64Flag{
		Name:  "offset",
		Usage: "byte offset of the first element",
	},
	&cli.UintFlag{
		Name:  "bit",
		Usage: "bit offset of the first element, counted from the most significant bit",
	},
	&cli.IntFlag{
		Name:  "columns",
		Value: 16,
		Usage: "number of elements across",
	},
	&cli.IntFlag{
		Name:  "rows",
		Value: 8,
		Usage: "number of elements down",
	},
	&cli.IntFlag{
		Name:  "width",
		Usage: "element width in pixels, if the format can be resized",
	},
	&cli.IntFlag{
		Name:  "height",
		Usage: "element height in pixels, if the format can be resized",
	},
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newArranger(c *cli.Context, t *tilecodec.TileCodec) (*tilecodec.Arranger, int, error) {
	a, err := t.Arranger(c.String("format"), c.Int("columns"), c.Int("rows"))
	if err != nil {
		return nil, 0, err
	}

	if c.Int("width") > 0 || c.Int("height") > 0 {
		w, h := a.Bounds()
		w, h = w/c.Int("columns"), h/c.Int("rows")
		if c.Int("width") > 0 {
			w = c.Int("width")
		}
		if c.Int("height") > 0 {
			h = c.Int("height")
		}
		if err := a.Resize(w, h); err != nil {
			return nil, 0, err
		}
	}

	f, err := t.FindFormat(c.String("format"))
	if err != nil {
		return nil, 0, err
	}

	return a, f.ColorDepth, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "tilecodec"
	app.Usage = "Retro console tile graphics codec"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TILECODEC_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to format database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import tile formats from XML",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := tilecodec.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				if err := t.ImportXML(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List tile formats",
			Description: "",
			Action: func(c *cli.Context) error {
				t, err := tilecodec.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				names, err := t.Formats()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, name := range names {
					fmt.Println(name)
				}

				return nil
			},
		},
		{
			Name:        "decode",
			Usage:       "Decode tiles from a file to a PNG image",
			Description: "",
			ArgsUsage:   "FILE IMAGE",
			Flags:       arrangerFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				t, err := tilecodec.New(c.String("db"), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				a, depth, err := newArranger(c, t)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				in, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer in.Close()

				grid, blank, err := a.Decode(context.Background(), in, bitstream.NewAddress(c.Uint64("offset"), c.Uint("bit")))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if blank > 0 {
					logger.Printf("%d elements beyond the end of \"%s\"\n", blank, c.Args().Get(0))
				}

				out, err := os.Create(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer out.Close()

				if err := png.Encode(out, tileimage.FromGrid(grid, tileimage.Grayscale(depth))); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "encode",
			Usage:       "Encode tiles from a paletted PNG image into a file",
			Description: "",
			ArgsUsage:   "FILE IMAGE",
			Flags:       arrangerFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				t, err := tilecodec.New(c.String("db"), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				a, depth, err := newArranger(c, t)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				in, err := os.Open(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer in.Close()

				m, err := png.Decode(in)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				w, h := a.Bounds()
				grid, err := tileimage.ToGrid(m, w, h, depth)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				out, err := os.OpenFile(c.Args().Get(0), os.O_RDWR, 0)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer out.Close()

				skipped, err := a.Encode(out, bitstream.NewAddress(c.Uint64("offset"), c.Uint("bit")), grid)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if skipped > 0 {
					logger.Printf("%d elements beyond the end of \"%s\"\n", skipped, c.Args().Get(0))
				}

				return nil
			},
		},
		{
			Name:        "pattern",
			Usage:       "Compile a remap pattern",
			Description: "Each PATTERN describes one plane. The compiled bit order is printed.",
			ArgsUsage:   "PATTERN...",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Usage: "pattern size in bits, defaults to the total pattern length",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				patterns := c.Args().Slice()
				size := c.Int("size")
				if size == 0 {
					size = len(strings.Join(patterns, ""))
				}

				r, err := pattern.Compile(patterns, size)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				s := make([]string, r.Size())
				for i, v := range r.Forward {
					s[i] = fmt.Sprint(v)
				}
				fmt.Println(strings.Join(s, " "))

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
