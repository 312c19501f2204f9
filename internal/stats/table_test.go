package stats

import "testing"

func TestFormatTable(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		rows    [][]string
		want    []string
	}{
		{
			name:    "aligns label left and numbers right",
			headers: []string{"Key", "Accuracy", "Samples"},
			rows:    [][]string{{"q", "62.50%", "16"}, {"<space>", "99.00%", "104"}},
			want: []string{
				"Key     Accuracy Samples",
				"q         62.50%      16",
				"<space>   99.00%     104",
			},
		},
		{
			name:    "wide runes",
			headers: []string{"Key", "N"},
			rows:    [][]string{{"日", "1"}, {"ab", "2"}},
			want:    []string{"Key N", "日  1", "ab  2"},
		},
		{
			name:    "short rows are padded",
			headers: []string{"A", "B"},
			rows:    [][]string{{"x"}},
			want:    []string{"A B", "x  "},
		},
		{name: "empty"},
	}
	for _, tc := range cases {
		got := formatTable(tc.headers, tc.rows)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %d lines, got %q", tc.name, len(tc.want), got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: line %d = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}
