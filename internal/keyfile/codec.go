package keyfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sfmbundle/internal/services"
)

const (
	// DescriptorLength is the number of descriptor dimensions per feature.
	DescriptorLength = 128
	// TokensPerFeature counts location, scale, orientation and descriptor values.
	TokensPerFeature = 4 + DescriptorLength
)

// breakpoints are the cumulative token offsets at which a compacted feature
// is split onto a new line.
var breakpoints = [...]int{4, 24, 44, 64, 84, 104, 124, 132}

const maxLineBytes = 1 << 20

// Feature is one keypoint in compacted token order.
type Feature []string

// Scale parses the feature scale.
func (f Feature) Scale() (float64, error) {
	return f.float(2)
}

// Orientation parses the feature orientation in radians.
func (f Feature) Orientation() (float64, error) {
	return f.float(3)
}

// Location parses the two location tokens in compacted order.
func (f Feature) Location() (float64, float64, error) {
	a, err := f.float(0)
	if err != nil {
		return 0, 0, err
	}
	b, err := f.float(1)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (f Feature) float(i int) (float64, error) {
	if i >= len(f) {
		return 0, fmt.Errorf("%w: feature has %d tokens", services.ErrValidation, len(f))
	}
	value, err := strconv.ParseFloat(f[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token %d: %v", services.ErrValidation, i, err)
	}
	return value, nil
}

// Compact reads raw extractor output from r and writes the compacted text to
// w. Blank lines are ignored. It returns the number of features written.
func Compact(r io.Reader, w io.Writer) (int, error) {
	features, err := readRaw(r)
	if err != nil {
		return 0, err
	}

	out := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(out, "%d %d\n", len(features), DescriptorLength); err != nil {
		return 0, err
	}
	for _, tokens := range features {
		tokens[0], tokens[1] = tokens[1], tokens[0]
		start := 0
		for _, end := range breakpoints {
			if _, err := out.WriteString(strings.Join(tokens[start:end], " ")); err != nil {
				return 0, err
			}
			if err := out.WriteByte('\n'); err != nil {
				return 0, err
			}
			start = end
		}
	}
	if err := out.Flush(); err != nil {
		return 0, err
	}
	return len(features), nil
}

func readRaw(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var features [][]string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) != TokensPerFeature {
			return nil, fmt.Errorf("%w: raw key line %d has %d values, want %d",
				services.ErrValidation, lineNo, len(tokens), TokensPerFeature)
		}
		features = append(features, tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read raw keys: %w", err)
	}
	return features, nil
}

// Decode parses compacted key text and returns its features. The header
// count must match the number of features present.
func Decode(r io.Reader) ([]Feature, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read key header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty key file", services.ErrValidation)
	}
	count, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	features := make([]Feature, 0, count)
	current := make(Feature, 0, TokensPerFeature)
	group := 0
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		tokens := strings.Fields(scanner.Text())
		want := breakpoints[group]
		if group > 0 {
			want -= breakpoints[group-1]
		}
		if len(tokens) != want {
			return nil, fmt.Errorf("%w: key line %d has %d values, want %d",
				services.ErrValidation, lineNo, len(tokens), want)
		}
		current = append(current, tokens...)
		group++
		if group == len(breakpoints) {
			features = append(features, current)
			current = make(Feature, 0, TokensPerFeature)
			group = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	if group != 0 {
		return nil, fmt.Errorf("%w: truncated feature after line %d", services.ErrValidation, lineNo)
	}
	if len(features) != count {
		return nil, fmt.Errorf("%w: header reports %d features, found %d",
			services.ErrValidation, count, len(features))
	}
	return features, nil
}

func parseHeader(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: malformed key header %q", services.ErrValidation, line)
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: malformed feature count %q", services.ErrValidation, fields[0])
	}
	if fields[1] != strconv.Itoa(DescriptorLength) {
		return 0, fmt.Errorf("%w: unsupported descriptor length %q", services.ErrValidation, fields[1])
	}
	return count, nil
}
