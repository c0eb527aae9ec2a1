// Command qaboard runs and administers a Q&A board.
package main

func main() {
	Execute()
}
