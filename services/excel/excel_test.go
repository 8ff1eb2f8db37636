package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/page"
)

func TestWriteRead(t *testing.T) {
	tbl := page.Table{
		Name:   "Students",
		Header: []string{"Matric No", "First Name", "Guardian"},
		Rows: [][]string{
			{"CSC/2021/001", "Ada", "Grace"},
			{"", "", ""},
			{"CSC/2021/002", "Linus"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write(&buf, tbl))

	rows, err := Reader{}.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []page.Row{
		{"Matric No": "CSC/2021/001", "First Name": "Ada", "Guardian": "Grace"},
		{"Matric No": "CSC/2021/002", "First Name": "Linus", "Guardian": ""},
	}, rows)
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := Reader{}.Read(bytes.NewBufferString("matric_no,first_name"))
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Fee payments", "Fee payments"},
		{"", "Sheet1"},
		{"a/b:c", "a-b-c"},
		{"A very long sheet name that overflows", "A very long sheet name that ove"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sheetName(tt.in))
		})
	}
}
