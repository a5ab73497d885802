package display

import (
	"fmt"
	"os"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/logging"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if logging.Magenta != "" {
		fmt.Fprint(os.Stdout, "\033[1;95m")
	}
	fmt.Fprint(os.Stdout, `  ____      ____            _____  __ ___
 / ___| ___|  _ \ _ __ ___|___ / / /_ / _ \
| |  _ / _ \ |_) | '__/ _ \ |_ \| '_ \ | | |
| |_| | (_) |  __/| | | (_) |__) | (_) | |_| |
 \____|\___/|_|   |_|  \___/____/ \___/ \___/
`)
	if logging.Magenta != "" {
		fmt.Fprintln(os.Stdout, logging.NC)
	}
}
