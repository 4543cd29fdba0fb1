package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/cave3d/internal/model"
)

// Reader handles reading surveys from the plain-text listing format
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a new listing reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		line:    0,
	}
}

// Read parses the entire listing and returns the survey
func (r *Reader) Read() (*model.Survey, error) {
	s := model.NewSurvey()

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		// Parse section headers
		if strings.HasPrefix(line, "[") {
			section := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")

			switch section {
			case "_header":
				if err := r.readHeader(s); err != nil {
					return nil, fmt.Errorf("line %d: read header: %w", r.line, err)
				}

			case "_station":
				st, err := r.readStation()
				if err != nil {
					return nil, fmt.Errorf("line %d: read station: %w", r.line, err)
				}
				s.Stations.Set(st)

			case "_leg":
				key, runs, err := r.readLeg()
				if err != nil {
					return nil, fmt.Errorf("line %d: read leg: %w", r.line, err)
				}
				if _, seen := s.Legs[key]; !seen {
					s.LegOrder = append(s.LegOrder, key)
				}
				s.Legs[key] = append(s.Legs[key], runs...)

			case "_tube":
				tube, err := r.readTube()
				if err != nil {
					return nil, fmt.Errorf("line %d: read tube: %w", r.line, err)
				}
				s.Tubes = append(s.Tubes, tube)

			case "end":
				continue

			default:
				// Unknown section - skip until [end]
				if err := r.skipToEnd(); err != nil {
					return nil, fmt.Errorf("line %d: skip unknown section: %w", r.line, err)
				}
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return s, nil
}

// fields calls fn for every key=value line of the current section until
// [end]. The value is everything after the first '=' with only a line
// ending removed, so labels keep surrounding spaces.
func (r *Reader) fields(fn func(key, value string) error) error {
	for r.scanner.Scan() {
		r.line++
		raw := strings.TrimRight(r.scanner.Text(), "\r")
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[end]") {
			return nil
		}

		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}

		if err := fn(strings.TrimSpace(parts[0]), parts[1]); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
	}

	return fmt.Errorf("unexpected EOF looking for [end]")
}

// readHeader reads the [_header] section
func (r *Reader) readHeader(s *model.Survey) error {
	return r.fields(func(key, value string) error {
		switch key {
		case "Title":
			s.Header.Title = value
		case "Version":
			s.Header.Version = value
		case "Metadata":
			s.Header.Metadata = value
		case "Timestamp":
			s.Header.Timestamp = value
		case "Style":
			style, err := parseStyle(value)
			if err != nil {
				return err
			}
			s.Style = style
		}
		return nil
	})
}

// readStation reads a [_station] section
func (r *Reader) readStation() (model.Station, error) {
	var st model.Station
	havePos := false

	err := r.fields(func(key, value string) error {
		switch key {
		case "Label":
			st.Label = value
		case "Pos":
			p, err := parsePoint(value)
			if err != nil {
				return fmt.Errorf("pos: %w", err)
			}
			st.Pos = p
			havePos = true
		case "Flags":
			flags, err := parseFlags(value)
			if err != nil {
				return err
			}
			st.Flags = flags
		}
		return nil
	})
	if err != nil {
		return st, err
	}
	if st.Label == "" {
		return st, fmt.Errorf("station without label")
	}
	if !havePos {
		return st, fmt.Errorf("station %q without position", st.Label)
	}
	return st, nil
}

// readLeg reads a [_leg] section
func (r *Reader) readLeg() (model.LegKey, model.Leg, error) {
	var key model.LegKey
	var leg model.Leg

	err := r.fields(func(k, value string) error {
		switch k {
		case "Key":
			lk, err := parseLegKey(value)
			if err != nil {
				return err
			}
			key = lk
		case "Run":
			run, err := parseRun(value)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			leg = append(leg, run)
		}
		return nil
	})
	return key, leg, err
}

// readTube reads a [_tube] section
func (r *Reader) readTube() (model.Tube, error) {
	var tube model.Tube

	err := r.fields(func(key, value string) error {
		if key != "Ring" {
			return nil
		}
		ring, err := parseRing(value)
		if err != nil {
			return fmt.Errorf("ring: %w", err)
		}
		tube = append(tube, ring)
		return nil
	})
	return tube, err
}

// skipToEnd skips lines until [end] is found
func (r *Reader) skipToEnd() error {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if strings.HasPrefix(line, "[end]") {
			return nil
		}
	}
	return fmt.Errorf("unexpected EOF looking for [end]")
}

// parsePoint parses "x,y,z" in survey units
func parsePoint(s string) (model.Point3, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return model.Point3{}, fmt.Errorf("want x,y,z, got %q", s)
	}

	var v [3]int32
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return model.Point3{}, fmt.Errorf("coordinate %q: %w", part, err)
		}
		v[i] = int32(n)
	}
	return model.Point3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseRun parses space separated points
func parseRun(s string) (model.Run, error) {
	var run model.Run
	for _, tok := range strings.Fields(s) {
		p, err := parsePoint(tok)
		if err != nil {
			return nil, err
		}
		run = append(run, p)
	}
	if len(run) < 2 {
		return nil, fmt.Errorf("need at least 2 points, have %d", len(run))
	}
	return run, nil
}

// parseRing parses "left,right,up,down,label". The label is everything
// after the fourth comma.
func parseRing(s string) (model.CrossSectionRing, error) {
	parts := strings.SplitN(s, ",", 5)
	if len(parts) != 5 {
		return model.CrossSectionRing{}, fmt.Errorf("want left,right,up,down,label, got %q", s)
	}

	var v [4]uint32
	for i := 0; i < 4; i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 32)
		if err != nil {
			return model.CrossSectionRing{}, fmt.Errorf("dimension %q: %w", parts[i], err)
		}
		v[i] = uint32(n)
	}
	return model.CrossSectionRing{
		Label: parts[4],
		Left:  v[0],
		Right: v[1],
		Up:    v[2],
		Down:  v[3],
	}, nil
}

// parseLegKey parses the form produced by model.LegKey.String
func parseLegKey(s string) (model.LegKey, error) {
	var key model.LegKey
	parts := strings.Split(strings.TrimSpace(s), "+")

	switch parts[0] {
	case "surface":
	case "underground":
		key.Underground = true
	default:
		return key, fmt.Errorf("unknown leg class %q", parts[0])
	}

	for _, p := range parts[1:] {
		switch p {
		case "duplicate":
			key.Duplicate = true
		case "splay":
			key.Splay = true
		default:
			return key, fmt.Errorf("unknown leg modifier %q", p)
		}
	}
	return key, nil
}

// parseFlags parses a comma separated list of station flag names
func parseFlags(s string) (model.StationFlags, error) {
	var flags model.StationFlags
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f := model.ParseStationFlag(name)
		if f == 0 {
			return 0, fmt.Errorf("unknown station flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

func parseStyle(s string) (model.Style, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for st := model.StyleNormal; st <= model.StyleNoSurvey; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	if s == "" || s == "UNSET" {
		return model.StyleUnset, nil
	}
	return model.StyleUnset, fmt.Errorf("unknown style %q", s)
}
