// Package utils collects small formatting helpers shared by the monitor
// and the CLI: colored strings, aligned tables, and byte-count formatting.
package utils

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-errors/errors"
	"github.com/goccy/go-yaml/lexer"
	"github.com/goccy/go-yaml/printer"
	"github.com/mattn/go-runewidth"
)

// WithPadding pads a string as much as you want, ignoring ANSI color codes
// when measuring its display width.
func WithPadding(str string, padding int) string {
	uncoloredStr := Decolorise(str)
	if padding < runewidth.StringWidth(uncoloredStr) {
		return str
	}
	return str + strings.Repeat(" ", padding-runewidth.StringWidth(uncoloredStr))
}

// ColoredString takes a string and a colour attribute and returns a colored
// string with that attribute.
func ColoredString(str string, colorAttribute color.Attribute) string {
	if colorAttribute == color.FgWhite {
		return str
	}
	colour := color.New(colorAttribute)
	return ColoredStringDirect(str, colour)
}

// ColoredStringDirect is used for aggregating a few color attributes
// rather than just sending a single one.
func ColoredStringDirect(str string, colour *color.Color) string {
	return colour.SprintFunc()(fmt.Sprint(str))
}

// ColoredYamlString takes a YAML formatted string and returns a colored
// string with colors hardcoded as: keys cyan, booleans magenta, numbers
// yellow, strings green. Used by the `--config` dump.
func ColoredYamlString(str string) string {
	format := func(attr color.Attribute) string {
		return fmt.Sprintf("%s[%dm", "\x1b", attr)
	}
	tokens := lexer.Tokenize(str)
	var p printer.Printer
	p.Bool = func() *printer.Property {
		return &printer.Property{Prefix: format(color.FgMagenta), Suffix: format(color.Reset)}
	}
	p.Number = func() *printer.Property {
		return &printer.Property{Prefix: format(color.FgYellow), Suffix: format(color.Reset)}
	}
	p.MapKey = func() *printer.Property {
		return &printer.Property{Prefix: format(color.FgCyan), Suffix: format(color.Reset)}
	}
	p.String = func() *printer.Property {
		return &printer.Property{Prefix: format(color.FgGreen), Suffix: format(color.Reset)}
	}
	return p.PrintTokens(tokens)
}

// Decolorise strips a string of ANSI color escape codes.
func Decolorise(str string) string {
	re := regexp.MustCompile(`\x1B\[([0-9]{1,2}(;[0-9]{1,2})?)?[mK]`)
	return re.ReplaceAllString(str, "")
}

// RenderTable takes an array of string arrays and returns a left-aligned,
// padded table, used by the monitor to print the process table.
func RenderTable(rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if !displayArraysAligned(rows) {
		return "", errors.New("each item must return the same number of strings to display")
	}

	columnPadWidths := getPadWidths(rows)
	paddedDisplayRows := getPaddedDisplayStrings(rows, columnPadWidths)

	return strings.Join(paddedDisplayRows, "\n"), nil
}

func getPadWidths(rows [][]string) []int {
	if len(rows[0]) <= 1 {
		return []int{}
	}
	columnPadWidths := make([]int, len(rows[0])-1)
	for i := range columnPadWidths {
		for _, cells := range rows {
			uncoloredCell := Decolorise(cells[i])
			if runewidth.StringWidth(uncoloredCell) > columnPadWidths[i] {
				columnPadWidths[i] = runewidth.StringWidth(uncoloredCell)
			}
		}
	}
	return columnPadWidths
}

func getPaddedDisplayStrings(rows [][]string, columnPadWidths []int) []string {
	paddedDisplayRows := make([]string, len(rows))
	for i, cells := range rows {
		for j, columnPadWidth := range columnPadWidths {
			paddedDisplayRows[i] += WithPadding(cells[j], columnPadWidth) + " "
		}
		paddedDisplayRows[i] += cells[len(columnPadWidths)]
	}
	return paddedDisplayRows
}

func displayArraysAligned(stringArrays [][]string) bool {
	for _, strs := range stringArrays {
		if len(strs) != len(stringArrays[0]) {
			return false
		}
	}
	return true
}

// FormatBinaryBytes renders a byte count using binary (1024-based) units,
// used by the monitor's sysinfo panel for totalram/freeram.
func FormatBinaryBytes(b int) string {
	n := float64(b)
	units := []string{"B", "kiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}
	for _, unit := range units {
		if n >= math.Pow(2, 10) {
			n /= math.Pow(2, 10)
		} else {
			val := fmt.Sprintf("%.2f%s", n, unit)
			if val == "0.00B" {
				return "0B"
			}
			return val
		}
	}
	return "a lot"
}

// FormatMapItem is for displaying items in a map.
func FormatMapItem(padding int, k string, v interface{}) string {
	return fmt.Sprintf("%s%s %v\n", strings.Repeat(" ", padding), ColoredString(k+":", color.FgYellow), fmt.Sprintf("%v", v))
}

// FormatMap is for displaying a map, used by the monitor's sysinfo panel.
func FormatMap(padding int, m map[string]string) string {
	if len(m) == 0 {
		return "none\n"
	}

	output := "\n"

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		output += FormatMapItem(padding, key, m[key])
	}

	return output
}

type multiErr []error

func (m multiErr) Error() string {
	var b bytes.Buffer
	b.WriteString("encountered multiple errors:")
	for _, err := range m {
		b.WriteString("\n\t... " + err.Error())
	}
	return b.String()
}

// CloseMany closes every io.Closer, aggregating failures instead of
// stopping at the first one.
func CloseMany(closers []io.Closer) error {
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return multiErr(errs)
	}
	return nil
}

// SafeTruncate truncates str to at most limit bytes, used by main.go to
// shorten a VCS revision into a short version string.
func SafeTruncate(str string, limit int) string {
	if len(str) > limit {
		return str[0:limit]
	}
	return str
}
