package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var tenIDs = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

func Test_Page_Without_Cursor_Returns_Most_Recent_Window(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"8", "9", "10"}, Page(tenIDs, 3, ""))
}

func Test_Page_Without_Cursor_And_Limit_Returns_Everything(t *testing.T) {
	req := require.New(t)
	req.Equal(tenIDs, Page(tenIDs, 0, ""))
}

func Test_Page_With_Cursor_Returns_Window_Strictly_Before_It(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"5", "6", "7"}, Page(tenIDs, 3, "8"))
}

func Test_Page_With_Unknown_Cursor_Is_Empty(t *testing.T) {
	req := require.New(t)
	req.Empty(Page(tenIDs, 3, "nope"))
}

func Test_Page_With_Cursor_At_Start_Is_Empty(t *testing.T) {
	req := require.New(t)
	req.Empty(Page(tenIDs, 3, "1"))
}

func Test_Page_Limit_Larger_Than_Remainder(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"1", "2"}, Page(tenIDs, 5, "3"))
}
