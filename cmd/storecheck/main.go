// Command storecheck checks storefront product pages for production
// readiness in a real browser.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errPagesFailed) {
			fmt.Fprintln(os.Stderr, "storecheck:", err)
		}
		os.Exit(1)
	}
}
