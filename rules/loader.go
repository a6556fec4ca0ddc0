package rules

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"

	"emperror.dev/errors"

	"fwsync/cidr"
)

// Rejected is a source file line that failed CIDR validation.
type Rejected struct {
	Line int
	Text string
	Err  error
}

// Scan is the outcome of reading a CIDR source file.
type Scan struct {
	Ranges   []string
	Rejected []Rejected
}

// LoadSourceRanges reads path and returns every valid CIDR line in file
// order. Malformed lines are dropped silently and an empty result is not
// an error.
func LoadSourceRanges(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CIDR source file")
	}
	defer f.Close()

	scan, err := ScanSourceRanges(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CIDR source file %s", path)
	}
	return scan.Ranges, nil
}

// ScanSourceRanges reads candidate CIDRs from r, one per line. Only trailing
// whitespace is stripped before validation. Lines of any length are accepted
// and an overlong line is rejected like any other malformed line.
func ScanSourceRanges(r io.Reader) (Scan, error) {
	var scan Scan
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Scan{}, err
		}
		if raw == "" && err != nil {
			break
		}
		lineNo++
		line := strings.TrimRightFunc(raw, unicode.IsSpace)
		if verr := cidr.Validate(line); verr != nil {
			scan.Rejected = append(scan.Rejected, Rejected{Line: lineNo, Text: line, Err: verr})
		} else {
			scan.Ranges = append(scan.Ranges, line)
		}
		if err != nil {
			break
		}
	}
	return scan, nil
}
