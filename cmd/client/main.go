package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/otpmail/internal/client/cli"
)

func main() {

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

}
