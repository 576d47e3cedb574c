package auth

import (
	"fmt"
	"io"
)

// ShowLoginGuide explains what account the downloader needs
func ShowLoginGuide(w io.Writer) {
	fmt.Fprintln(w, "barchive downloads archives through your Broadcastify account.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  • Archive downloads need a Premium Subscription on that account.")
	fmt.Fprintln(w, "  • Use the same username and password as the Broadcastify login page.")
	fmt.Fprintln(w, "  • Credentials go to the system keyring when one is available,")
	fmt.Fprintln(w, "    otherwise to an encrypted file under your config directory.")
	fmt.Fprintf(w, "  • %s and %s are used when no username is configured.\n", EnvUsername, EnvPassword)
	fmt.Fprintln(w)
}
