// Package envcheck inspects a hosting runtime and reports whether it is ready
// to run a given framework.
//
// A check evaluates three kinds of facts against a declared baseline: the
// runtime version, the availability of required and optional extensions, and
// a snapshot of selected configuration directives. Every fact is queried live
// from the runtime at call time; nothing is cached between calls.
//
// # API Model
//
// envcheck keeps evaluation and presentation apart:
//   - [Checker] produces a [Report] made of plain data
//   - renderers (see the render subpackage) turn a [Report] into HTML, JSON,
//     markdown or a terminal table
//
// The baseline is a [Profile]: minimum version, extension lists and the
// configuration directives to display. [DefaultProfile] returns the built-in
// CodeIgniter 4 profile.
//
// # Quick Check
//
//	rt, err := php.New()
//	if err != nil {
//	    log.Fatal(err) // no usable PHP binary
//	}
//	c, err := envcheck.NewChecker(rt, envcheck.DefaultProfile())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := c.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !report.Ready() {
//	    for _, p := range report.Problems() {
//	        fmt.Println(p)
//	    }
//	}
//
// # Versions
//
// [CompareVersions] orders dotted version strings segment by segment,
// numerically. Only the release core is compared: "7.4.3-4ubuntu2" compares
// as "7.4.3", and missing segments count as zero, so "7.4" equals "7.4.0".
//
// # Errors
//
// A missing extension is a normal result, not an error. Errors are reserved
// for the runtime itself being unusable and wrap [ErrRuntimeUnavailable];
// use errors.As with *[RuntimeError] to get the failing query and its stderr.
package envcheck
