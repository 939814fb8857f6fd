// Package builtins links every builtin family into the runtime registry.
package builtins

import (
	_ "github.com/xirelogy/go-mumei/internal/builtins/check"
	_ "github.com/xirelogy/go-mumei/internal/builtins/collections"
	_ "github.com/xirelogy/go-mumei/internal/builtins/convert"
	_ "github.com/xirelogy/go-mumei/internal/builtins/io"
	_ "github.com/xirelogy/go-mumei/internal/builtins/mathlib"
	_ "github.com/xirelogy/go-mumei/internal/builtins/text"
)
