package program

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/chronal/infer"
	"github.com/sarchlab/chronal/isa"
)

// ParseSamples collects the sample blocks of a text. Instruction lines and
// directives outside sample blocks are ignored so that a combined
// samples-and-program file can be passed as is.
func ParseSamples(text string) ([]infer.Sample, error) {
	var samples []infer.Sample

	sc := newScanner(text)
	for sc.next() {
		line := sc.text()

		switch {
		case line == "":
			continue
		case isBefore(line):
			s, err := parseSample(sc)
			if err != nil {
				return nil, err
			}
			samples = append(samples, s)
		case strings.HasPrefix(line, "#ip"):
			continue
		default:
			if _, err := parseLine(sc); err != nil {
				return nil, err
			}
		}
	}

	return samples, nil
}

// LoadSamplesFile parses the samples of a file.
func LoadSamplesFile(path string) ([]infer.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	samples, err := ParseSamples(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	return samples, nil
}

func isBefore(line string) bool {
	return strings.HasPrefix(line, "before:")
}

// parseSample reads a sample whose "Before:" line is the current line.
func parseSample(sc *scanner) (infer.Sample, error) {
	var s infer.Sample

	before, err := parseVector(sc, "before:")
	if err != nil {
		return s, err
	}

	if !sc.next() {
		return s, sc.errorf("sample ends before its instruction")
	}

	fields := strings.Fields(sc.text())
	if len(fields) != 4 {
		return s, sc.errorf("expected a numeric opcode and three operands")
	}

	raw, err := parseInts(fields)
	if err != nil || raw[0] < 0 {
		return s, sc.errorf("invalid sample instruction")
	}

	if !sc.next() {
		return s, sc.errorf("sample ends before its after state")
	}

	after, err := parseVector(sc, "after:")
	if err != nil {
		return s, err
	}

	if len(before) != len(after) {
		return s, sc.errorf("after state has %d registers, before state %d",
			len(after), len(before))
	}

	s.Before = before
	s.After = after
	s.Instruction = infer.RawInstruction{
		Opcode: int(raw[0]),
		A:      raw[1],
		B:      raw[2],
		C:      raw[3],
	}

	return s, nil
}

func parseVector(sc *scanner, prefix string) (isa.Registers, error) {
	line := sc.text()
	if !strings.HasPrefix(line, prefix) {
		return nil, sc.errorf("expected %q", prefix)
	}

	body := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return nil, sc.errorf("register vector must be enclosed in brackets")
	}

	body = strings.TrimSuffix(strings.TrimPrefix(body, "["), "]")
	if strings.TrimSpace(body) == "" {
		return nil, sc.errorf("empty register vector")
	}

	vals, err := parseInts(strings.Split(body, ","))
	if err != nil {
		return nil, sc.errorf("invalid register value")
	}

	return isa.FromInt64s(vals...), nil
}
