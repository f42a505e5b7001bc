package main

// Blank imports ensure resource init() registration runs for the CLI binary.
import (
	_ "github.com/conformkit/conform/internal/resources/gitrepo"
	_ "github.com/conformkit/conform/internal/resources/lineinfile"
	_ "github.com/conformkit/conform/internal/resources/symlink"
)
