// Package library resolves Arduino library references to files on disk.
//
// A reference such as "vendor/ArduinoRobot" goes through four steps:
//
//  1. [ParseReference] keeps the last path segment ("ArduinoRobot").
//  2. [ResolveAlias] maps historically renamed libraries to their directory
//     ("Robot_Control").
//  3. [Locator] decides between a built-in library under
//     <builtin>/libraries/<name> and an active external library under
//     <external>/<name>/<version>. Built-in always wins.
//  4. [Collector] lists the library files, skipping example subtrees, and
//     optionally the example sketches.
//
// [Service.List] runs the whole chain and assembles the editor response:
//
//	svc := library.NewService(library.Options{
//	    Roots:   library.Roots{Builtin: "/opt/builtin", External: "/opt/external"},
//	    Gateway: gw,
//	})
//	resp := svc.List(ctx, library.Request{Library: "Servo"})
//
// Resolution is read-only and keeps no state between calls; a Service may be
// shared by any number of goroutines.
package library
