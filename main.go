package main

import "github.com/knoxsec/knox/cmd/knox"

func main() { knox.Execute() }
