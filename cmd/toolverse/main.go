// Command toolverse serves and queries the AI tool directory.
package main

func main() {
	Execute()
}
