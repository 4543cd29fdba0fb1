package binary

import (
	"fmt"

	"github.com/dyuri/cave3d/internal/model"
)

// Command is the record class selected by an opcode byte
type Command uint8

const (
	cmdInvalid Command = iota
	CmdStyle
	CmdReserved
	CmdMove
	CmdDate
	CmdError
	CmdCrossSection
	CmdLine
	CmdLabel
)

func (c Command) String() string {
	switch c {
	case CmdStyle:
		return "style"
	case CmdReserved:
		return "reserved"
	case CmdMove:
		return "move"
	case CmdDate:
		return "date"
	case CmdError:
		return "error"
	case CmdCrossSection:
		return "xsect"
	case CmdLine:
		return "line"
	case CmdLabel:
		return "label"
	default:
		return "invalid"
	}
}

// Opcode layout
const (
	opStyleNormal   = 0x00
	opStyleNoSurvey = 0x04
	opMove          = 0x0f
	opDateNone      = 0x10
	opDateDays      = 0x11
	opDateSpan      = 0x12
	opDateRange     = 0x13
	opError         = 0x1f
	opXSect16       = 0x30
	opXSect32       = 0x32
	opLine          = 0x40
	opLabel         = 0x80

	xsectLastFlag = 0x01 // Last ring of the current tube
	xsectWide     = 0x02 // 4-byte LRUD values

	lineSurface   = 0x01 // Set on surface legs, clear underground
	lineDuplicate = 0x02
	lineSplay     = 0x04
	lineNoLabel   = 0x20 // Reuse the previous label

	errorRecordSize = 20
)

// dateSkip is the payload size of each date opcode
var dateSkip = map[byte]int{
	opDateNone:  0,
	opDateDays:  2,
	opDateSpan:  3,
	opDateRange: 4,
}

type opRange struct {
	lo, hi byte
	cmd    Command
}

// commandRanges lists every opcode range; together they cover 0x00-0xff
var commandRanges = []opRange{
	{0x00, 0x04, CmdStyle},
	{0x05, 0x0e, CmdReserved},
	{0x0f, 0x0f, CmdMove},
	{0x10, 0x13, CmdDate},
	{0x14, 0x1e, CmdReserved},
	{0x1f, 0x1f, CmdError},
	{0x20, 0x2f, CmdReserved},
	{0x30, 0x33, CmdCrossSection},
	{0x34, 0x3f, CmdReserved},
	{0x40, 0x7f, CmdLine},
	{0x80, 0xff, CmdLabel},
}

var commandTable = buildCommandTable()

func buildCommandTable() [256]Command {
	var t [256]Command
	for _, r := range commandRanges {
		for op := int(r.lo); op <= int(r.hi); op++ {
			t[op] = r.cmd
		}
	}
	return t
}

// Classify returns the command for an opcode
func Classify(op byte) Command {
	return commandTable[op]
}

// Record is one decoded .3d record. The set of implementations is closed.
type Record interface {
	Opcode() byte
	record()
}

type base struct{ Op byte }

func (b base) Opcode() byte { return b.Op }
func (base) record()        {}

// StyleRecord sets the survey style
type StyleRecord struct {
	base
	Style model.Style
}

// ReservedRecord is an opcode with no defined meaning. It has no payload.
type ReservedRecord struct{ base }

// UnhandledRecord is an opcode the command table has no class for
type UnhandledRecord struct{ base }

// MoveRecord lifts the pen and places it at Pos
type MoveRecord struct {
	base
	Pos model.Point3
}

// DateRecord marks survey dates; the payload is skipped
type DateRecord struct{ base }

// ErrorRecord carries loop closure statistics; the payload is skipped
type ErrorRecord struct{ base }

// CrossSectionRecord is one LRUD ring
type CrossSectionRecord struct {
	base
	Ring model.CrossSectionRing
	Last bool // Closes the current tube
}

// LineRecord draws a leg from the pen position to Pos
type LineRecord struct {
	base
	Key   model.LegKey
	Label string
	Pos   model.Point3
}

// LabelRecord places a named station
type LabelRecord struct {
	base
	Station model.Station
}

// DecodeRecord reads one record from c. labels carries the label state
// between records.
func DecodeRecord(c *Cursor, labels *LabelCodec) (Record, error) {
	op, err := c.ReadByte()
	if err != nil {
		return nil, err
	}
	b := base{Op: op}

	switch Classify(op) {
	case CmdStyle:
		return StyleRecord{base: b, Style: model.StyleNormal + model.Style(op-opStyleNormal)}, nil

	case CmdReserved:
		return ReservedRecord{base: b}, nil

	case CmdMove:
		pos, err := c.ReadPoint()
		if err != nil {
			return nil, fmt.Errorf("read move: %w", err)
		}
		return MoveRecord{base: b, Pos: pos}, nil

	case CmdDate:
		if err := c.Skip(dateSkip[op]); err != nil {
			return nil, fmt.Errorf("skip date: %w", err)
		}
		return DateRecord{base: b}, nil

	case CmdError:
		if err := c.Skip(errorRecordSize); err != nil {
			return nil, fmt.Errorf("skip error record: %w", err)
		}
		return ErrorRecord{base: b}, nil

	case CmdCrossSection:
		return decodeCrossSection(c, labels, b)

	case CmdLine:
		return decodeLine(c, labels, b)

	case CmdLabel:
		label, err := labels.Apply(c)
		if err != nil {
			return nil, err
		}
		pos, err := c.ReadPoint()
		if err != nil {
			return nil, fmt.Errorf("read station position: %w", err)
		}
		return LabelRecord{base: b, Station: model.Station{
			Label: label,
			Pos:   pos,
			Flags: model.StationFlags(op & 0x7f),
		}}, nil
	}

	return UnhandledRecord{base: b}, nil
}

func decodeCrossSection(c *Cursor, labels *LabelCodec, b base) (Record, error) {
	label, err := labels.Apply(c)
	if err != nil {
		return nil, err
	}

	var lrud [4]uint32
	for i := range lrud {
		if b.Op&xsectWide != 0 {
			lrud[i], err = c.ReadU32()
		} else {
			var v uint16
			v, err = c.ReadU16()
			lrud[i] = uint32(v)
		}
		if err != nil {
			return nil, fmt.Errorf("read LRUD: %w", err)
		}
	}

	return CrossSectionRecord{
		base: b,
		Ring: model.CrossSectionRing{
			Label: label,
			Left:  lrud[0],
			Right: lrud[1],
			Up:    lrud[2],
			Down:  lrud[3],
		},
		Last: b.Op&xsectLastFlag != 0,
	}, nil
}

func decodeLine(c *Cursor, labels *LabelCodec, b base) (Record, error) {
	rec := LineRecord{
		base: b,
		Key:  LineKey(b.Op),
	}

	if b.Op&lineNoLabel == 0 {
		label, err := labels.Apply(c)
		if err != nil {
			return nil, err
		}
		rec.Label = label
	} else {
		rec.Label = labels.Current()
	}

	pos, err := c.ReadPoint()
	if err != nil {
		return nil, fmt.Errorf("read line end: %w", err)
	}
	rec.Pos = pos
	return rec, nil
}

// LineKey derives the leg class from a line opcode.
// Bit 0 set marks a surface leg, so underground legs have it clear.
func LineKey(op byte) model.LegKey {
	return model.LegKey{
		Underground: op&lineSurface == 0,
		Duplicate:   op&lineDuplicate != 0,
		Splay:       op&lineSplay != 0,
	}
}

// lineOpcode is the inverse of LineKey
func lineOpcode(key model.LegKey, omitLabel bool) byte {
	op := byte(opLine)
	if !key.Underground {
		op |= lineSurface
	}
	if key.Duplicate {
		op |= lineDuplicate
	}
	if key.Splay {
		op |= lineSplay
	}
	if omitLabel {
		op |= lineNoLabel
	}
	return op
}
