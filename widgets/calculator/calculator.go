// Package calculator implements a four-function formula calculator driven one key at a time.
//
// Input is collected as a stream of numbers and operators. Pressing equals reduces the stream
// left to right, with multiplication and division binding tighter than addition and subtraction,
// so "3 + 5 * 6 - 2 / 4 =" gives 32.5. When operators are entered consecutively the last one wins,
// except that a minus directly after another operator starts a negative number.
package calculator

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/surface"
)

// Control IDs.
const (
	Zero     = "zero"
	One      = "one"
	Two      = "two"
	Three    = "three"
	Four     = "four"
	Five     = "five"
	Six      = "six"
	Seven    = "seven"
	Eight    = "eight"
	Nine     = "nine"
	Add      = "add"
	Subtract = "subtract"
	Multiply = "multiply"
	Divide   = "divide"
	Decimal  = "decimal"
	Clear    = "clear"
	Equals   = "equals"
)

// Observable IDs.
const (
	Display = "display"
	Formula = "formula"
)

// ErrorText is displayed when a calculation cannot be completed.
const ErrorText = "Error"

// resultDecimals is how many decimal places results are rounded to.
const resultDecimals = 10

// Digits maps each digit control to the digit it enters, in numeric order.
var Digits = []string{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine}

var operatorSymbols = map[string]string{Add: "+", Subtract: "-", Multiply: "*", Divide: "/"}

// Controls lists every control ID.
var Controls = append(append([]string(nil), Digits...), Add, Subtract, Multiply, Divide, Decimal, Clear, Equals)

// Observables lists every observable ID.
var Observables = []string{Display, Formula}

var errDivideByZero = errors.New("division by zero")

// Calculator holds the in-progress input. All methods are safe for concurrent use.
type Calculator struct {
	tokens      []string // alternating numbers and operator control IDs
	entry       string   // number being typed; "-" means a sign with no digits yet
	evaluated   bool
	lastResult  string
	display     string
	lastFormula string

	broadcaster *surface.Broadcaster
	lock        sync.Mutex
}

// New creates a Calculator showing "0".
func New() *Calculator {
	c := &Calculator{display: "0"}
	c.broadcaster = surface.NewBroadcaster(c.valuesLocked())
	return c
}

// Press handles one control. It returns false if the ID is not a calculator control.
func (c *Calculator) Press(id string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch {
	case digitValue(id) >= 0:
		c.digit(strconv.Itoa(digitValue(id)))
	case id == Decimal:
		c.decimal()
	case operatorSymbols[id] != "":
		c.operator(id)
	case id == Equals:
		c.equals()
	case id == Clear:
		c.clear()
	default:
		return false
	}
	c.broadcaster.Publish(c.valuesLocked())
	return true
}

// Close ends every subscription.
func (c *Calculator) Close() {
	c.broadcaster.Close()
}

func (c *Calculator) startFresh() {
	c.tokens = nil
	c.entry = ""
	c.evaluated = false
	c.lastFormula = ""
}

func (c *Calculator) digit(d string) {
	if c.evaluated {
		c.startFresh()
	}
	switch c.entry {
	case "0":
		c.entry = d
	case "-0":
		c.entry = "-" + d
	default:
		c.entry += d
	}
	c.display = c.entry
}

func (c *Calculator) decimal() {
	if c.evaluated {
		c.startFresh()
	}
	switch {
	case strings.Contains(c.entry, "."):
		return
	case c.entry == "" || c.entry == "-":
		c.entry += "0."
	default:
		c.entry += "."
	}
	c.display = c.entry
}

func (c *Calculator) operator(op string) {
	if c.evaluated {
		start := c.lastResult
		c.startFresh()
		if start != "" {
			c.tokens = []string{start}
		}
	}
	switch {
	case c.entry == "-":
		if op == Subtract {
			return
		}
		c.entry = ""
		c.replaceTrailingOperator(op)
	case c.entry != "":
		c.tokens = append(c.tokens, c.entry, op)
		c.entry = ""
	case len(c.tokens) == 0:
		if op == Subtract {
			c.entry = "-"
		} else {
			c.tokens = []string{"0", op}
		}
	case op == Subtract && isOperator(c.tokens[len(c.tokens)-1]) && c.tokens[len(c.tokens)-1] != Subtract:
		c.entry = "-"
	default:
		c.replaceTrailingOperator(op)
	}
	c.display = operatorSymbols[op]
}

func (c *Calculator) replaceTrailingOperator(op string) {
	if n := len(c.tokens); n > 0 && isOperator(c.tokens[n-1]) {
		c.tokens[n-1] = op
		return
	}
	c.tokens = append(c.tokens, op)
}

func (c *Calculator) equals() {
	if c.evaluated {
		return
	}
	tokens := append([]string(nil), c.tokens...)
	if c.entry != "" && c.entry != "-" {
		tokens = append(tokens, c.entry)
	}
	if n := len(tokens); n > 0 && isOperator(tokens[n-1]) {
		tokens = tokens[:n-1]
	}
	if len(tokens) == 0 {
		return
	}
	formula := formatFormula(tokens, "")
	value, err := evaluate(tokens)
	if err != nil {
		c.display = ErrorText
		c.lastResult = ""
	} else {
		c.display = formatNumber(value)
		c.lastResult = c.display
	}
	c.tokens = nil
	c.entry = ""
	c.evaluated = true
	c.lastFormula = formula + "=" + c.display
}

func (c *Calculator) clear() {
	c.startFresh()
	c.lastResult = ""
	c.display = "0"
}

func (c *Calculator) valuesLocked() map[string]string {
	formula := c.lastFormula
	if !c.evaluated {
		formula = formatFormula(c.tokens, c.entry)
	}
	return map[string]string{Display: c.display, Formula: formula}
}

// evaluate reduces alternating number/operator tokens. Multiplication and division apply to the
// running term; addition and subtraction close the term into the sum.
func evaluate(tokens []string) (float64, error) {
	first, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, err
	}
	sum, term := 0.0, first
	for i := 1; i+1 < len(tokens); i += 2 {
		n, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return 0, err
		}
		switch tokens[i] {
		case Multiply:
			term *= n
		case Divide:
			if n == 0 {
				return 0, errDivideByZero
			}
			term /= n
		case Add:
			sum, term = sum+term, n
		case Subtract:
			sum, term = sum+term, -n
		}
	}
	result := sum + term
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, errDivideByZero
	}
	return result, nil
}

func formatNumber(value float64) string {
	s := strconv.FormatFloat(value, 'f', resultDecimals, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func formatFormula(tokens []string, entry string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(helpers.IfElse(isOperator(t), operatorSymbols[t], t))
	}
	b.WriteString(entry)
	return b.String()
}

func isOperator(token string) bool {
	_, ok := operatorSymbols[token]
	return ok
}

func digitValue(id string) int {
	for i, d := range Digits {
		if d == id {
			return i
		}
	}
	return -1
}
