/*
Package cipher extracts the deobfuscation artifacts from YouTube player code.

Three artifacts are located:

 1. Signature timestamp
    - a numeric constant sent with playback requests

 2. Signature deobfuscation code
    - the cipher function, found by name through an ordered pattern list
    - its body, located by brace matching with a regular expression fallback
    - the helper object it calls into
    - a wrapper named deobfuscate that forwards to the cipher function

 3. Throttling ("n" parameter) function
    - its name, possibly resolved through an array declaration
    - its body, extracted like the cipher function and stripped of
      early-return guards

Every lookup walks a Patterns list in order and stops at the first match.
Failures are reported as errs discovery errors wrapping ErrNoPatternMatched,
and extracted code that does not parse as compilation errors.

# Usage

	code, err := cipher.SignatureDeobfuscationCode(playerCode, runner)
	if err != nil {
		return err
	}
	sig, err := runner.Run(code, cipher.DeobfuscateFunctionName, obfuscated)

	name, err := cipher.ThrottlingFunctionName(playerCode)
	fn, err := cipher.ThrottlingFunction(playerCode, name, runner)
	n, err := runner.Run(fn, name, obfuscatedN)
*/
package cipher
