// resync serves a shared directory over TCP and syncs files against it,
// resuming interrupted downloads.
package main

import "resync/cmd"

func main() {
	cmd.Execute()
}
