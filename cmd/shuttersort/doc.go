// Command shuttersort sorts photo and video collections into date-based
// folder trees.
package main
