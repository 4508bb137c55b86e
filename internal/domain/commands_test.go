package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var catalog = []Command{
	{Name: "play", Description: "Play a track", Category: "Music", Aliases: []string{"p"}},
	{Name: "skip", Description: "Skip the current song", Category: "Music"},
	{Name: "ping", Description: "Check bot latency", Category: "Utility"},
	{Name: "bassboost", Description: "Boost the bass", Category: "Filters"},
}

func names(cmds []Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}

func TestCategories(t *testing.T) {
	want := []string{"All", "Music", "Utility", "Filters"}
	if diff := cmp.Diff(want, Categories(catalog)); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"All"}, Categories(nil)); diff != "" {
		t.Fatalf("empty catalog (-want +got):\n%s", diff)
	}
}

func TestFilterCommands(t *testing.T) {
	tests := []struct {
		name     string
		category string
		term     string
		want     []string
	}{
		{"all", AllCategories, "", []string{"play", "skip", "ping", "bassboost"}},
		{"empty_category_is_all", "", "", []string{"play", "skip", "ping", "bassboost"}},
		{"by_category", "Music", "", []string{"play", "skip"}},
		{"term_in_name_case_insensitive", AllCategories, "PING", []string{"ping"}},
		{"term_in_description", AllCategories, "song", []string{"skip"}},
		{"category_and_term", "Music", "bass", []string{}},
		{"unknown_category", "Admin", "", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := names(FilterCommands(catalog, tc.category, tc.term))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("filter (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeCommands(t *testing.T) {
	cmds, err := DecodeCommands([]byte(`[{"name":"play","description":"d","category":"Music","aliases":["p"],"usage":"/play <q>"}]`))
	if err != nil {
		t.Fatalf("DecodeCommands: %v", err)
	}
	want := []Command{{Name: "play", Description: "d", Category: "Music", Aliases: []string{"p"}, Usage: "/play <q>"}}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}
	if _, err := DecodeCommands([]byte(`{"name":"x"}`)); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err=%v, want ErrMalformedResponse", err)
	}
}
