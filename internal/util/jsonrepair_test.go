package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		changed bool
	}{
		{`{"location":"Paris"}`, `{"location":"Paris"}`, false},
		{"```json\n{\"location\":\"Paris\"}\n```", `{"location":"Paris"}`, true},
		{"```JSON {\"location\":\"Paris\"} ```", `{"location":"Paris"}`, true},
		{"```\n{\"location\":\"Paris\"}\n```", `{"location":"Paris"}`, true},
		// only fences are removed
		{`Sure! {"location":"Paris"} hope that helps {}`, `Sure! {"location":"Paris"} hope that helps {}`, false},
		{`{"location":"Paris, France",}`, `{"location":"Paris, France",}`, false},
		{"```json\n{\"location\":\"Paris\",}\n```", `{"location":"Paris",}`, true},
		{`{"location": "New Yo`, `{"location": "New Yo`, false},
		{"``````", "", true},
	}
	for i, c := range cases {
		got, changed := RepairJSON(c.in)
		assert.Equal(t, c.want, got, "case %d", i)
		assert.Equal(t, c.changed, changed, "case %d", i)
	}
}
