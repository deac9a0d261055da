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

// DeobfuscateFunctionName is the wrapper every signature snippet defines.
const DeobfuscateFunctionName = "deobfuscate"

// Compiler validates extracted code. javascript.Runner satisfies it.
type Compiler interface {
	Compile(code string) error
}

var signatureTimestampRe = regexp.MustCompile(`signatureTimestamp[=:](\d+)`)

var signatureNamePatterns = Patterns{
	Std("decodeURIComponent(h.s)", `\bm=(?P<name>[a-zA-Z0-9$]{2,})\(decodeURIComponent\(h\.s\)\)`),
	Std("decodeURIComponent(c)", `\bc&&\(c=(?P<name>[a-zA-Z0-9$]{2,})\(decodeURIComponent\(c\)\)`),
	Std("a=a.split", `(?:\b|[^a-zA-Z0-9$])(?P<name>[a-zA-Z0-9$]{2,})\s*=\s*function\(\s*a\s*\)\s*\{\s*a\s*=\s*a\.split\(\s*""\s*\)`),
	Re2("x=x.split", `(?<name>[\w$]+)\s*=\s*function\((?<arg>\w+)\)\{\s*\k<arg>=\s*\k<arg>\.split\(""\)\s*;`, regexp2.None),
}

var helperNameRe = regexp.MustCompile(`;([A-Za-z0-9_$]{2,})\...\(`)

// SignatureTimestamp returns the signatureTimestamp constant.
func SignatureTimestamp(code string) (int, error) {
	m := signatureTimestampRe.FindStringSubmatch(code)
	if m == nil {
		return 0, errs.Discovery("could not find signature timestamp", nil)
	}
	ts, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errs.Discovery("signature timestamp is not a number", err)
	}
	return ts, nil
}

// SignatureFunctionName returns the name of the signature cipher function.
func SignatureFunctionName(code string) (string, error) {
	m, err := signatureNamePatterns.First(code)
	if err != nil {
		return "", errs.Discovery("could not find signature function name", err)
	}
	return m.Group("name"), nil
}

// SignatureFunction returns the source of the named cipher function as a
// var declaration. The body must compile.
func SignatureFunction(code, name string, c Compiler) (string, error) {
	var fn string
	if body, err := javascript.MatchToClosingBrace(code, name+"=function"); err == nil {
		fn = "var " + name + "=function" + body + ";"
	} else {
		re := regexp.MustCompile(`(?s)(` + regexp.QuoteMeta(name) + `=function\([a-zA-Z0-9_]+\)\{.+?\})`)
		m := re.FindStringSubmatch(code)
		if m == nil {
			return "", errs.Discovery(fmt.Sprintf("could not find body of signature function %s", name), err)
		}
		fn = "var " + m[1]
	}
	if err := c.Compile(fn); err != nil {
		return "", errs.Compilation(fmt.Sprintf("signature function %s does not compile", name), err)
	}
	return fn, nil
}

// SignatureHelperObject returns the definition of the helper object the
// cipher function calls, with newlines removed.
func SignatureHelperObject(code, function string) (string, error) {
	m := helperNameRe.FindStringSubmatch(function)
	if m == nil {
		return "", errs.Discovery("could not find helper object name in signature function", nil)
	}
	name := m[1]
	re := regexp2.MustCompile(`(var `+regexp2.Escape(name)+`=\{(?>.|\n)+?\}\};)`, regexp2.None)
	found, err := re.FindStringMatch(code)
	if err != nil || found == nil {
		return "", errs.Discovery(fmt.Sprintf("could not find helper object %s", name), err)
	}
	return strings.ReplaceAll(found.GroupByNumber(1).String(), "\n", ""), nil
}

// SignatureDeobfuscationCode returns a runnable snippet: helper object,
// cipher function and a deobfuscate wrapper forwarding to it.
func SignatureDeobfuscationCode(code string, c Compiler) (string, error) {
	name, err := SignatureFunctionName(code)
	if err != nil {
		return "", err
	}
	fn, err := SignatureFunction(code, name, c)
	if err != nil {
		return "", err
	}
	helper, err := SignatureHelperObject(code, fn)
	if err != nil {
		return "", err
	}
	return helper + fn + "function " + DeobfuscateFunctionName + "(a){return " + name + "(a);}", nil
}
