// Command robolink drives a running simulation host from the shell.
package main

func main() {
	Execute()
}
