// Package cli implements licensectl, the command-line client of the keybind
// license server.
//
// Commands:
//
//	authenticate <key> [-hwid H] [-version V] [-type T]
//	check <key>
//	login
//	issue -name N -email E [-days D]
//	revoke <key>
//	unbind <key>
//	hwid
//	hash-password
//	ping
//
// Administrative commands send the token saved by "login" (or given with
// -k / LICENSECTL_ADMIN_TOKEN).
package cli
