package ephemeris

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a dataset in the line format below. model decides how many
// fields each term row has: 3 for VSOP87 and 8 for ELP.
//
//	# comment
//	body earth
//	scale 1e-8
//	series L 0 [cos|sin]
//	175347046 0 0
//
// Blank lines and text after '#' are ignored. scale multiplies every
// amplitude that follows it.
func Parse(r io.Reader, model Model) (*Dataset, error) {
	want, err := fieldCount(model)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Model: model}
	scale := 1.0
	var cur *Series

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "body":
			if len(fields) != 2 {
				return nil, &ParseError{Line: line, Msg: "body takes one argument"}
			}
			ds.Body = fields[1]

		case "scale":
			if len(fields) != 2 {
				return nil, &ParseError{Line: line, Msg: "scale takes one argument"}
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || v == 0 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid scale %q", fields[1])}
			}
			scale = v

		case "series":
			s, perr := parseSeriesHeader(fields, line, model)
			if perr != nil {
				return nil, perr
			}
			if ds.find(s.Quantity, s.Power) != nil {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("duplicate series %s%d", s.Quantity, s.Power)}
			}
			ds.Series = append(ds.Series, s)
			cur = &ds.Series[len(ds.Series)-1]

		default:
			if cur == nil {
				return nil, &ParseError{Line: line, Msg: "term row before any series directive"}
			}
			if len(fields) != want {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("%s term needs %d fields, got %d", model, want, len(fields))}
			}
			term, perr := parseTerm(fields, line, scale)
			if perr != nil {
				return nil, perr
			}
			cur.Terms = append(cur.Terms, term)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if len(ds.Series) == 0 {
		return nil, &ParseError{Line: line, Msg: "no series found"}
	}
	return ds, nil
}

func fieldCount(model Model) (int, error) {
	switch model {
	case ModelVSOP87:
		return 3, nil
	case ModelELP:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: unsupported model %s", ErrModelMismatch, model)
}

func parseSeriesHeader(fields []string, line int, model Model) (Series, *ParseError) {
	if len(fields) < 3 || len(fields) > 4 {
		return Series{}, &ParseError{Line: line, Msg: "series takes a quantity, a power and an optional sin|cos"}
	}
	power, err := strconv.Atoi(fields[2])
	if err != nil || power < 0 {
		return Series{}, &ParseError{Line: line, Msg: fmt.Sprintf("invalid power %q", fields[2])}
	}

	s := Series{Quantity: fields[1], Power: power, Trig: Cos}
	if len(fields) == 4 {
		switch fields[3] {
		case "cos":
		case "sin":
			if model == ModelVSOP87 {
				return Series{}, &ParseError{Line: line, Msg: "vsop87 series are cosine series"}
			}
			s.Trig = Sin
		default:
			return Series{}, &ParseError{Line: line, Msg: fmt.Sprintf("unknown function %q", fields[3])}
		}
	}
	return s, nil
}

func parseTerm(fields []string, line int, scale float64) (Term, *ParseError) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Term{}, &ParseError{Line: line, Msg: fmt.Sprintf("field %d: invalid number %q", i+1, f)}
		}
		values[i] = v
	}
	return Term{
		Amplitude:   values[0] * scale,
		Phase:       values[1],
		Frequencies: values[2:],
	}, nil
}
