// Command trackcodec converts between CSV position lists and encoded tracks.
//
//	trackcodec encode [--legacy] [file ...]
//	trackcodec decode [--legacy] [--json] [--time-format FMT] [encoded | -]
//
// encode reads "timestamp_ms,lat,lon" lines (a header line and lines starting
// with # are skipped) and prints the encoded track. decode prints one line per
// sample with the time rendered through a strftime pattern.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

const defaultTimeFormat = "%Y-%m-%dT%H:%M:%SZ"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: trackcodec encode [--legacy] [file ...]")
	fmt.Fprintln(w, "       trackcodec decode [--legacy] [--json] [--time-format FMT] [encoded | -]")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "trackcodec"})

	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "encode":
		err = encodeCmd(args[1:], stdin, stdout, logger)
	case "decode":
		err = decodeCmd(args[1:], stdin, stdout, logger)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 2
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		logger.Error("failed", "cmd", args[0], "err", err)
		return 1
	}
	return 0
}

func encodeCmd(args []string, stdin io.Reader, stdout io.Writer, logger *log.Logger) error {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	legacy := fs.Bool("legacy", false, "write the legacy format (unsigned first time delta)")
	verbose := fs.BoolP("verbose", "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	a := positions.New()
	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, name := range inputs {
		n, err := readCSV(name, stdin, a)
		if err != nil {
			return err
		}
		logger.Debug("read positions", "input", name, "count", n)
	}

	var (
		out string
		err error
	)
	if *legacy {
		out, err = a.EncodeLegacy()
		if err != nil {
			return err
		}
	} else {
		out = a.Encode()
	}
	logger.Debug("encoded track", "points", a.Len(), "bytes", len(out))

	_, err = fmt.Fprintln(stdout, out)
	return err
}

// readCSV adds every sample of one input to a and returns how many rows it read
func readCSV(name string, stdin io.Reader, a *positions.Archive) (int, error) {
	var r io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	n := 0
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}

		ts, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			// header
			if row == 1 {
				continue
			}
			return n, fmt.Errorf("%s: row %d: bad timestamp %q", name, row, rec[0])
		}
		lat, err1 := strconv.ParseFloat(rec[1], 64)
		lon, err2 := strconv.ParseFloat(rec[2], 64)
		if err1 != nil || err2 != nil {
			return n, fmt.Errorf("%s: row %d: bad coordinates", name, row)
		}

		p := positions.Position{Timestamp: ts, Latitude: lat, Longitude: lon}
		if !a.Add(p) {
			return n, fmt.Errorf("%s: row %d: position out of range", name, row)
		}
		n++
	}
}

type jsonPoint struct {
	Timestamp int64   `json:"timestamp"`
	Time      string  `json:"time"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func decodeCmd(args []string, stdin io.Reader, stdout io.Writer, logger *log.Logger) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	legacy := fs.Bool("legacy", false, "read the legacy format (unsigned first time delta)")
	asJSON := fs.Bool("json", false, "print a JSON array instead of CSV")
	timeFormat := fs.StringP("time-format", "t", defaultTimeFormat, "strftime pattern for the time column (UTC)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layout, err := strftime.New(*timeFormat)
	if err != nil {
		return fmt.Errorf("bad --time-format: %w", err)
	}

	var encoded string
	switch {
	case fs.NArg() > 1:
		return errors.New("decode takes at most one encoded track")
	case fs.NArg() == 1 && fs.Arg(0) != "-":
		encoded = fs.Arg(0)
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		encoded = string(b)
	}
	encoded = strings.TrimSpace(encoded)

	decode := positions.FromEncoded
	if *legacy {
		decode = positions.FromLegacyEncoded
	}
	// a damaged track still prints its intact prefix before failing
	a, decodeErr := decode(encoded)
	if decodeErr != nil {
		logger.Warn("track damaged", "decoded", a.Len())
	}

	ps := a.Positions()
	if *asJSON {
		out := make([]jsonPoint, len(ps))
		for i, p := range ps {
			out[i] = jsonPoint{
				Timestamp: p.Timestamp,
				Time:      layout.FormatString(time.UnixMilli(p.Timestamp).UTC()),
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return decodeErr
	}

	w := bufio.NewWriter(stdout)
	fmt.Fprintln(w, "time,timestamp_ms,lat,lon")
	for _, p := range ps {
		fmt.Fprintf(w, "%s,%d,%s,%s\n",
			layout.FormatString(time.UnixMilli(p.Timestamp).UTC()),
			p.Timestamp,
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return decodeErr
}
