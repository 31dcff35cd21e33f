package main

import (
	"testing"
)

func TestUpdateSystemMetrics(t *testing.T) {
	// Exercise the collection path; failures surface as panics.
	updateSystemMetrics()
}
