package model

import "fmt"

// Survey is the decoded content of a .3d file.
// This is the unified internal representation shared by the binary
// decoder, the text listing format and the geometry builder.
type Survey struct {
	Header      Header
	Style       Style
	Stations    *StationRegistry
	Legs        map[LegKey]Leg
	LegOrder    []LegKey // Keys of Legs in first-seen order
	Tubes       []Tube
	Diagnostics []Diagnostic
}

// Header holds the four LF-terminated strings at the start of a .3d file
type Header struct {
	Title     string // Survey name
	Version   string // Format version string
	Metadata  string // Free-text metadata (often the separator string)
	Timestamp string // Creation timestamp, not interpreted
}

// Point3 is a position in survey-native units (centimetres)
type Point3 struct {
	X int32
	Y int32
	Z int32
}

// String formats the point as "(x,y,z)"
func (p Point3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Station is a labelled survey point
type Station struct {
	Label string
	Pos   Point3
	Flags StationFlags
}

// StationFlags carries the informational bits of a label record
type StationFlags uint8

const (
	StationSurface     StationFlags = 0x01
	StationUnderground StationFlags = 0x02
	StationEntrance    StationFlags = 0x04
	StationExported    StationFlags = 0x08
	StationFixed       StationFlags = 0x10
	StationAnonymous   StationFlags = 0x20
	StationWall        StationFlags = 0x40
)

var stationFlagNames = []struct {
	flag StationFlags
	name string
}{
	{StationSurface, "surface"},
	{StationUnderground, "underground"},
	{StationEntrance, "entrance"},
	{StationExported, "exported"},
	{StationFixed, "fixed"},
	{StationAnonymous, "anonymous"},
	{StationWall, "wall"},
}

// Has reports whether all bits of f are set
func (s StationFlags) Has(f StationFlags) bool {
	return s&f == f
}

// Names returns the names of the set flags in bit order
func (s StationFlags) Names() []string {
	var names []string
	for _, fn := range stationFlagNames {
		if s.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

// ParseStationFlag maps a flag name back to its bit, or 0 if unknown
func ParseStationFlag(name string) StationFlags {
	for _, fn := range stationFlagNames {
		if fn.name == name {
			return fn.flag
		}
	}
	return 0
}

// StationRegistry maps labels to stations. Later writes for the same
// label replace earlier ones; the order of first insertion is kept.
type StationRegistry struct {
	byLabel map[string]int
	list    []Station
}

// NewStationRegistry creates an empty registry
func NewStationRegistry() *StationRegistry {
	return &StationRegistry{byLabel: make(map[string]int)}
}

// Set inserts or replaces the station with the given label
func (r *StationRegistry) Set(st Station) {
	if i, ok := r.byLabel[st.Label]; ok {
		r.list[i] = st
		return
	}
	r.byLabel[st.Label] = len(r.list)
	r.list = append(r.list, st)
}

// Lookup returns the station for label
func (r *StationRegistry) Lookup(label string) (Station, bool) {
	i, ok := r.byLabel[label]
	if !ok {
		return Station{}, false
	}
	return r.list[i], true
}

// Len returns the number of distinct stations
func (r *StationRegistry) Len() int {
	return len(r.list)
}

// All returns the stations in first-insertion order.
// The returned slice must not be modified.
func (r *StationRegistry) All() []Station {
	return r.list
}

// Points returns the positions of all stations
func (r *StationRegistry) Points() []Point3 {
	pts := make([]Point3, len(r.list))
	for i, st := range r.list {
		pts[i] = st.Pos
	}
	return pts
}

// LegKey identifies the visibility class of a leg
type LegKey struct {
	Underground bool
	Duplicate   bool
	Splay       bool
}

// String returns a compact human-readable form, e.g. "underground+splay"
func (k LegKey) String() string {
	s := "surface"
	if k.Underground {
		s = "underground"
	}
	if k.Duplicate {
		s += "+duplicate"
	}
	if k.Splay {
		s += "+splay"
	}
	return s
}

// Run is a continuous polyline of at least two points
type Run []Point3

// Leg is the list of runs sharing one LegKey
type Leg []Run

// CrossSectionRing holds passage dimensions at a station
type CrossSectionRing struct {
	Label string
	Left  uint32
	Right uint32
	Up    uint32
	Down  uint32
}

// Tube is an ordered sequence of rings along a traverse
type Tube []CrossSectionRing

// Style is the survey style set by opcodes 0x00-0x04
type Style int

const (
	StyleUnset Style = iota
	StyleNormal
	StyleDiving
	StyleCartesian
	StyleCylPolar
	StyleNoSurvey
)

func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "NORMAL"
	case StyleDiving:
		return "DIVING"
	case StyleCartesian:
		return "CARTESIAN"
	case StyleCylPolar:
		return "CYLPOLAR"
	case StyleNoSurvey:
		return "NOSURVEY"
	default:
		return "UNSET"
	}
}

// DiagnosticKind classifies non-fatal events seen during decode or build
type DiagnosticKind int

const (
	DiagReserved   DiagnosticKind = iota // Reserved opcode skipped
	DiagUnhandled                        // Opcode without a handler
	DiagUnresolved                       // Cross-section references an unknown station
	DiagDegenerate                       // Zero extent or zero colour range
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagReserved:
		return "reserved"
	case DiagUnhandled:
		return "unhandled"
	case DiagUnresolved:
		return "unresolved"
	case DiagDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// Diagnostic is a recorded, non-fatal event
type Diagnostic struct {
	Offset  int // Byte offset of the opcode, -1 when not tied to input
	Opcode  byte
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	if d.Offset < 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s at 0x%x (opcode 0x%02x): %s", d.Kind, d.Offset, d.Opcode, d.Message)
}

// NewSurvey creates an empty survey
func NewSurvey() *Survey {
	return &Survey{
		Stations: NewStationRegistry(),
		Legs:     make(map[LegKey]Leg),
	}
}

// LegCount returns the total number of runs across all keys
func (s *Survey) LegCount() int {
	n := 0
	for _, leg := range s.Legs {
		n += len(leg)
	}
	return n
}
