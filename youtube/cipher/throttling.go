package cipher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/javascript"
)

// Named groups: name is the function or array variable, idx the optional
// array index.
var throttlingNamePatterns = Patterns{
	Std(`.get("n"))&&`,
		`\.get\("n"\)\)&&\([a-zA-Z0-9$_]=(?P<name>[a-zA-Z_$][\w$]*)(?:\[(?P<idx>\d+)\])?\([a-zA-Z0-9$_]\)`),
	Std(`String.fromCharCode(110)`,
		`\([a-zA-Z0-9$_]=String\.fromCharCode\(110\),[a-zA-Z0-9$_]=[a-zA-Z0-9$_]\.get\([a-zA-Z0-9$_]\)\)&&\([a-zA-Z0-9$_]=(?P<name>[a-zA-Z_$][\w$]*)(?:\[(?P<idx>\d+)\])?\([a-zA-Z0-9$_]\)`),
	Std(`"nn"[+a.b]`,
		`\([a-zA-Z0-9$_]="nn"\[\+[\w$]+\.[\w$]+\],[a-zA-Z0-9$_]=[\w$]+\.get\([\w$]+\)\)&&\([a-zA-Z0-9$_]=(?P<name>[a-zA-Z_$][\w$]*)(?:\[(?P<idx>\d+)\])?\([a-zA-Z0-9$_]\)`),
	Re2(`set("n",v),f.length`,
		`(?<v>[a-zA-Z0-9$_]+)=(?<name>[a-zA-Z_$][\w$]*)(?:\[(?<idx>\d+)\])?\([a-zA-Z0-9$_]+\),[a-zA-Z0-9$_]+\.set\((?:"n"|[a-zA-Z0-9$_]+),\k<v>\),\k<name>\.length`,
		regexp2.None),
	Re2(`return "_w8_"+a`,
		`;\s*(?<name>[a-zA-Z0-9_$]+)\s*=\s*function\([a-zA-Z0-9_$]+\)\s*\{(?:(?!\};).)+?return\s*(?<q>["'])[\w-]+_w8_\k<q>\s*\+\s*[a-zA-Z0-9_$]+`,
		regexp2.Singleline),
	Re2(`var b=a.split("")`,
		`(?<name>[a-zA-Z_$][\w$]*)\s*=\s*function\((?<arg>[a-zA-Z0-9_$]+)\)\s*\{\s*var\s+[a-zA-Z0-9_$]+\s*=\s*\k<arg>\.split\(\s*""\s*\)`,
		regexp2.None),
}

var (
	throttlingParamRe = regexp.MustCompile(`[&?]n=([^&]+)`)
	earlyReturnRe     = regexp.MustCompile(`;\s*if\s*\(\s*typeof\s+[a-zA-Z0-9_$]+\s*===?\s*(?:"undefined"|'undefined')\s*\)\s*return\s+[a-zA-Z0-9_$]+;`)
)

// ThrottlingFunctionName returns the name of the throttling function. When
// the matching pattern references an array element, the name is read from
// the array declaration; failing that is an error, later patterns are not
// tried.
func ThrottlingFunctionName(code string) (string, error) {
	m, err := throttlingNamePatterns.First(code)
	if err != nil {
		return "", errs.Discovery("could not find throttling function name", err)
	}
	name := m.Group("name")
	idx := m.Group("idx")
	if idx == "" {
		return name, nil
	}
	return resolveArrayElement(code, name, idx)
}

func resolveArrayElement(code, array, idx string) (string, error) {
	i, err := strconv.Atoi(idx)
	if err != nil {
		return "", errs.Discovery(fmt.Sprintf("invalid index %q into %s", idx, array), err)
	}
	re := regexp.MustCompile(`var ` + regexp.QuoteMeta(array) + `\s*=\s*\[(.+?)][;,]`)
	m := re.FindStringSubmatch(code)
	if m == nil {
		return "", errs.Discovery(fmt.Sprintf("could not find array %s holding the throttling function", array), nil)
	}
	elems := strings.Split(m[1], ",")
	if i < 0 || i >= len(elems) {
		return "", errs.Discovery(fmt.Sprintf("index %d out of range for array %s", i, array), nil)
	}
	name := strings.TrimSpace(elems[i])
	if name == "" {
		return "", errs.Discovery(fmt.Sprintf("empty element %d in array %s", i, array), nil)
	}
	return name, nil
}

// ThrottlingFunction returns the source of the named throttling function
// with early-return guards removed. The result must compile.
func ThrottlingFunction(code, name string, c Compiler) (string, error) {
	var fn string
	if body, err := javascript.MatchToClosingBrace(code, name+"=function"); err == nil {
		fn = name + "=function" + body + ";"
	} else {
		re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(name) + `=\s*function([\S\s]*?\}\s*return [\w$]+?\.join\(""\)\s*\};)`)
		m := re.FindStringSubmatch(code)
		if m == nil {
			return "", errs.Discovery(fmt.Sprintf("could not find body of throttling function %s", name), err)
		}
		fn = "function " + name + m[1]
	}
	fn = earlyReturnRe.ReplaceAllLiteralString(fn, ";")
	if err := c.Compile(fn); err != nil {
		return "", errs.Compilation(fmt.Sprintf("throttling function %s does not compile", name), err)
	}
	return fn, nil
}

// ThrottlingParameterFromStreamingURL returns the n query value, if any.
func ThrottlingParameterFromStreamingURL(streamingURL string) (string, bool) {
	m := throttlingParamRe.FindStringSubmatch(streamingURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}
