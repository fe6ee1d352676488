package rem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/remora/lisp"
)

// Format renders a value the way the REPL and the print builtin show it.
// Strings at the top level print raw; inside lists they print quoted so list
// structure stays readable.
func Format(symbols *lisp.Provider, v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return formatNode(symbols, v)
}

func formatNode(symbols *lisp.Provider, v any) string {
	switch tv := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case string:
		return strconv.Quote(tv)
	case *lisp.Symbol:
		if tv == lisp.SymUnknown {
			return "unknown"
		}
		return symbols.NameOf(tv)
	case *lisp.List:
		if len(tv.Items) == 2 && tv.Items[0] == lisp.SymQuote {
			return "`" + formatNode(symbols, tv.Items[1])
		}
		parts := make([]string, len(tv.Items))
		for i := range tv.Items {
			parts[i] = formatNode(symbols, tv.Items[i])
		}
		return "(" + strings.Join(parts, " ") + ")"
	case lisp.Closure:
		return "<closure>"
	default:
		return fmt.Sprintf("%v", tv)
	}
}
