package common

import (
	"encoding/json"
	"fmt"
)

type LineCol struct {
	Offset int // Byte offset into the source
	LineNo int // 1-based line number
	ColNo  int // 1-based column number, counted in runes
}

// Span is a half-open byte range [Start, End) of the source together with
// the line/column positions of both ends.
type Span struct {
	Start       int // Byte offset of the first character
	End         int // Byte offset just past the last character
	StartLine   int // The starting line number of the token
	StartColumn int // The starting column number of the token
	EndLine     int // The ending line number of the token
	EndColumn   int // The ending column number of the token
}

func (x *Span) SpanString() string {
	return fmt.Sprintf("%d %d %d %d", x.StartLine, x.StartColumn, x.EndLine, x.EndColumn)
}

func (x *LineCol) SpanString(lineCol LineCol) string {
	span := x.Span(lineCol)
	return span.SpanString()
}

func (x *LineCol) Span(lineCol LineCol) Span {
	return Span{
		Start:       x.Offset,
		End:         lineCol.Offset,
		StartLine:   x.LineNo,
		StartColumn: x.ColNo,
		EndLine:     lineCol.LineNo,
		EndColumn:   lineCol.ColNo,
	}
}

// StartPos returns the position of the first character of the span.
func (x *Span) StartPos() LineCol {
	return LineCol{Offset: x.Start, LineNo: x.StartLine, ColNo: x.StartColumn}
}

// EndPos returns the position just past the last character of the span.
func (x *Span) EndPos() LineCol {
	return LineCol{Offset: x.End, LineNo: x.EndLine, ColNo: x.EndColumn}
}

func (x *Span) ToSpan(y *Span) *Span {
	return &Span{
		Start:       x.Start,
		End:         y.End,
		StartLine:   x.StartLine,
		StartColumn: x.StartColumn,
		EndLine:     y.EndLine,
		EndColumn:   y.EndColumn,
	}
}

func (x *Span) MergeSpan(y *Span) Span {
	if y == nil {
		return Span{}
	}
	sofar := *x
	if y.Start < sofar.Start {
		sofar.Start = y.Start
		sofar.StartLine = y.StartLine
		sofar.StartColumn = y.StartColumn
	}
	if y.End > sofar.End {
		sofar.End = y.End
		sofar.EndLine = y.EndLine
		sofar.EndColumn = y.EndColumn
	}
	return sofar
}

// Len is the number of source bytes covered.
func (x *Span) Len() int {
	return x.End - x.Start
}

// Contains reports whether y lies entirely within x.
func (x *Span) Contains(y *Span) bool {
	return x.Start <= y.Start && y.End <= x.End
}

// MarshalJSON implements custom JSON marshaling for Span.
func (s Span) MarshalJSON() ([]byte, error) {
	arr := [6]int{s.Start, s.End, s.StartLine, s.StartColumn, s.EndLine, s.EndColumn}
	return json.Marshal(arr)
}

// UnmarshalJSON implements custom JSON unmarshaling for Span.
func (s *Span) UnmarshalJSON(data []byte) error {
	var arr [6]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	s.Start = arr[0]
	s.End = arr[1]
	s.StartLine = arr[2]
	s.StartColumn = arr[3]
	s.EndLine = arr[4]
	s.EndColumn = arr[5]
	return nil
}

// MarshalYAML renders the span in the same compact array form as JSON.
func (s Span) MarshalYAML() (any, error) {
	return []int{s.Start, s.End, s.StartLine, s.StartColumn, s.EndLine, s.EndColumn}, nil
}
