package tilecodec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/bodgit/tilecodec/bitstream"
	"github.com/bodgit/tilecodec/codec"
)

const defaultWorkers = 4

// Arranger is a grid of columns by rows elements of one format stored
// consecutively, left to right and top to bottom, from a base address.
type Arranger struct {
	format  *codec.Format
	columns int
	rows    int
	width   int
	height  int
	storage int

	// Workers is the number of elements decoded concurrently.
	Workers int

	logger *log.Logger
}

// NewArranger returns an Arranger of columns by rows elements of format f
// at the dimensions of f.
func NewArranger(f *codec.Format, columns, rows int, logger *log.Logger) (*Arranger, error) {
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid arranger dimensions %dx%d", columns, rows)
	}

	c, err := codec.New(f)
	if err != nil {
		return nil, err
	}

	return &Arranger{
		format:  f,
		columns: columns,
		rows:    rows,
		width:   c.Width(),
		height:  c.Height(),
		storage: c.StorageSize(),
		Workers: defaultWorkers,
		logger:  logger,
	}, nil
}

// Resize changes the dimensions of every element, subject to the resize
// rules of the format.
func (a *Arranger) Resize(width, height int) error {
	c, err := codec.New(a.format)
	if err != nil {
		return err
	}
	if err := c.Resize(width, height); err != nil {
		return err
	}
	a.width, a.height, a.storage = width, height, c.StorageSize()
	return nil
}

func (a *Arranger) newCodec() (*codec.Codec, error) {
	c, err := codec.New(a.format)
	if err != nil {
		return nil, err
	}
	if err := c.Resize(a.width, a.height); err != nil {
		return nil, err
	}
	return c, nil
}

// Bounds returns the width and height in pixels of the whole arranger.
func (a *Arranger) Bounds() (int, int) {
	return a.columns * a.width, a.rows * a.height
}

// StorageSize returns the number of bits occupied by one element.
func (a *Arranger) StorageSize() int {
	return a.storage
}

// Address returns the address of the ith element.
func (a *Arranger) Address(base bitstream.Address, i int) bitstream.Address {
	return base.Add(uint64(i) * uint64(a.storage))
}

func (a *Arranger) newGrid() [][]byte {
	w, h := a.Bounds()
	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = make([]byte, w)
	}
	return grid
}

// element returns the pixels of the ith element within grid.
func (a *Arranger) element(grid [][]byte, i int) [][]byte {
	x, y := i%a.columns*a.width, i/a.columns*a.height
	el := make([][]byte, a.height)
	for j := range el {
		el[j] = grid[y+j][x : x+a.width : x+a.width]
	}
	return el
}

func (a *Arranger) elements(ctx context.Context) (<-chan int, <-chan error) {
	out := make(chan int)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := 0; i < a.columns*a.rows; i++ {
			select {
			case out <- i:
			case <-ctx.Done():
				errc <- errors.New("decode cancelled")
				return
			}
		}
	}()
	return out, errc
}

func (a *Arranger) elementWorker(ctx context.Context, in <-chan int, r io.ReadSeeker, base bitstream.Address, mu *sync.Mutex, grid [][]byte, blank *int32) (<-chan error, error) {
	c, err := a.newCodec()
	if err != nil {
		return nil, err
	}
	b := make([]byte, (a.storage+7+7)/8)

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for i := range in {
			addr := a.Address(base, i)

			mu.Lock()
			err := bitstream.ReadShifted(r, addr, a.storage, b)
			mu.Unlock()

			switch {
			case errors.Is(err, bitstream.ErrNoData):
				// Leave the element blank
				atomic.AddInt32(blank, 1)
				a.logger.Printf("No data for element %d at %s\n", i, addr)
				continue
			case err != nil:
				errc <- err
				return
			}

			if err := c.DecodeInto(b, a.element(grid, i)); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// Decode decodes every element starting at base in r and returns the
// combined grid of pixels along with the number of elements left blank as
// they lie beyond the end of r. Reads from r are serialized so r need not
// be safe for concurrent use.
func (a *Arranger) Decode(ctx context.Context, r io.ReadSeeker, base bitstream.Address) ([][]byte, int, error) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	grid := a.newGrid()

	var (
		mu       sync.Mutex
		blank    int32
		errcList []<-chan error
	)

	elements, errc := a.elements(ctx)
	errcList = append(errcList, errc)

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		errc, err := a.elementWorker(ctx, elements, r, base, &mu, grid, &blank)
		if err != nil {
			return nil, 0, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, 0, err
	}

	return grid, int(atomic.LoadInt32(&blank)), nil
}

// Encode encodes grid, which must match Bounds, into every element
// starting at base in rw. Elements that lie beyond the end of rw are
// skipped and their number returned.
func (a *Arranger) Encode(rw io.ReadWriteSeeker, base bitstream.Address, grid [][]byte) (int, error) {
	w, h := a.Bounds()
	if len(grid) != h {
		return 0, fmt.Errorf("%w: grid has %d rows, expected %d", bitstream.ErrInvalidArgument, len(grid), h)
	}
	for y, row := range grid {
		if len(row) != w {
			return 0, fmt.Errorf("%w: grid row %d has %d pixels, expected %d", bitstream.ErrInvalidArgument, y, len(row), w)
		}
	}

	c, err := a.newCodec()
	if err != nil {
		return 0, err
	}

	var skipped int
	for i := 0; i < a.columns*a.rows; i++ {
		addr := a.Address(base, i)
		switch err := c.EncodeElement(rw, addr, a.element(grid, i)); {
		case errors.Is(err, bitstream.ErrNoData):
			skipped++
			a.logger.Printf("No room for element %d at %s\n", i, addr)
		case err != nil:
			return 0, err
		}
	}

	return skipped, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
