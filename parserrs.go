package equation

import "strconv"

// BracketError is an error indicating an open parenthesis with no matching
// close parenthesis. It implements InputError.
type BracketError struct {
	// Col is the position of the open parenthesis.
	Col int
}

func (err *BracketError) Error() string {
	return errpos(err.Col, "open bracket ( with no close bracket")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// OperandError is an error indicating an operator or function without a
// resolved operand where it needs one. It implements InputError.
type OperandError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the operator symbol or function name.
	Operator string
	// Side is "left" or "right" for binary operators and "" otherwise.
	Side string
}

func (err *OperandError) Error() string {
	s := "missing operand for " + strconv.Quote(err.Operator)
	if err.Side != "" {
		s = "missing " + err.Side + " operand for " + strconv.Quote(err.Operator)
	}
	return errpos(err.Col, s)
}

func (err *OperandError) Pos() int {
	return err.Col
}

// RemainderError is an error indicating that compilation finished without
// reducing the input to a single expression. It implements InputError.
type RemainderError struct {
	// Col is the position of the first unresolved text, or of the second
	// expression if everything was resolved.
	Col int
	// Text is the unresolved text, if any.
	Text string
	// Parts is the number of segments that remained.
	Parts int
}

func (err *RemainderError) Error() string {
	switch {
	case err.Parts == 0:
		return errpos(err.Col, "no expression")
	case err.Text != "":
		return errpos(err.Col, "unexpected "+strconv.Quote(err.Text))
	}
	return errpos(err.Col, strconv.Itoa(err.Parts)+" expressions with no operator between them")
}

func (err *RemainderError) Pos() int {
	return err.Col
}

// NumberError is an error indicating a run of digits and dots that is not a
// number. It implements InputError.
type NumberError struct {
	// Col is the position of the literal.
	Col int
	// Text is the literal.
	Text string
}

func (err *NumberError) Error() string {
	return errpos(err.Col, "invalid number "+strconv.Quote(err.Text))
}

func (err *NumberError) Pos() int {
	return err.Col
}

// RangeError is an error indicating a position outside the text of a
// sequence. The compiler never produces it from valid states; seeing one
// means a pass computed a bad position. It implements InputError.
type RangeError struct {
	// Index is the position that was looked up in the logical string.
	Index int
	// Len is the length of the logical string.
	Len int
}

func (err *RangeError) Error() string {
	return errpos(err.Pos(), "position "+strconv.Itoa(err.Index)+" out of range for length "+strconv.Itoa(err.Len))
}

func (err *RangeError) Pos() int {
	return err.Index + 1
}

// ArityError is an error indicating a node with the wrong number of children
// or an operation that does not belong to its kind. It is the panic value
// when a malformed tree is evaluated or formatted.
type ArityError struct {
	Kind Kind
	Op   Op
	Want int
	Got  int
}

func (err *ArityError) Error() string {
	return "equation: malformed " + err.Kind.String() + " node with op " + err.Op.String() +
		": want " + strconv.Itoa(err.Want) + " children, have " + strconv.Itoa(err.Got)
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based byte column in the source of the text that
	// caused the error.
	Pos() int
}

var (
	_ InputError = (*BracketError)(nil)
	_ InputError = (*OperandError)(nil)
	_ InputError = (*RemainderError)(nil)
	_ InputError = (*NumberError)(nil)
	_ InputError = (*RangeError)(nil)
)
