package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/txsift/internal/model"
)

func TestAssemble(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"Description", "Ref_No", "Credit", "Narrative Desc"},
		Rows: [][]string{
			{"SALARY JAN", "R001", "100", "payroll"},
			{"", "R002", "50", "x"},
			{"REFUND", "", "", ""},
		},
	}
	a := NewAssembler("")

	t.Run("single description and reference", func(t *testing.T) {
		got := a.Assemble(tbl, []int{0}, []int{1})
		assert.Equal(t, []string{"SALARY JAN R001", "nan R002", "REFUND nan"}, got)
	})

	t.Run("multiple description columns keep order", func(t *testing.T) {
		got := a.Assemble(tbl, []int{3, 0}, []int{1})
		assert.Equal(t, "payroll SALARY JAN R001", got[0])
		assert.Equal(t, "x nan R002", got[1])
		assert.Equal(t, "nan REFUND nan", got[2])
	})

	t.Run("one string per row", func(t *testing.T) {
		assert.Len(t, a.Assemble(tbl, []int{0}, []int{1}), tbl.Len())
		assert.Empty(t, a.Assemble(&model.Table{Columns: tbl.Columns}, []int{0}, []int{1}))
	})
}

func TestAssembleCustomMissingToken(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"Desc", "Ref"},
		Rows:    [][]string{{"  ", "R1"}},
	}
	a := NewAssembler("<missing>")
	assert.Equal(t, []string{"<missing> R1"}, a.Assemble(tbl, []int{0}, []int{1}))
	assert.Equal(t, "<missing>", a.MissingToken())
}

func TestCell(t *testing.T) {
	a := NewAssembler(DefaultMissingToken)
	tests := []struct {
		in, want string
	}{
		{"", "nan"},
		{"\t ", "nan"},
		{"ATM WDL", "ATM WDL"},
		{"ＡＴＭ", "ATM"},
		{"line1\nline2", "line1 line2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Cell(tt.in), "Cell(%q)", tt.in)
	}
}
