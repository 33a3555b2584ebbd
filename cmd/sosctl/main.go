// Command sosctl is the offline player helper: it packs choices, draws salts
// and builds or checks commitments exactly as the server verifies them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
