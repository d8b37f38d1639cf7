// Command entries builds the meet entries dataset.
package main

import "github.com/JakeFAU/diamond-entries/cmd"

func main() {
	cmd.Execute()
}
