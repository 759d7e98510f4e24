package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"ysa-registration/internal/model"
)

func sampleRegs() []model.Registration {
	return []model.Registration{
		{ID: "1", FullName: "សុខ សុភា", EnglishName: "Sok Sophea", PhoneNumber: "012345678", Gender: model.GenderFemale, TShirtSize: "M", Stake: "ស្តេកខាងត្បូង", Ward: "វួដទួលទំពូង"},
		{ID: "2", FullName: "ចាន់ ដារា", EnglishName: "Chan Dara", PhoneNumber: "098765432", Gender: model.GenderMale, TShirtSize: "L", Stake: "ស្តេកខាងត្បូង", Ward: "វួដស្ទឹងមានជ័យ"},
		{ID: "3", FullName: "គឹម សុខា", EnglishName: "Kim Sokha", PhoneNumber: "011222333", Gender: model.GenderMale, TShirtSize: "M", Stake: "ស្តេកខាងជើង", Ward: "វួដទួលគោក"},
	}
}

func ids(regs []model.Registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.ID
	}
	return out
}

func TestFilterSearch(t *testing.T) {
	regs := sampleRegs()

	require.Equal(t, []string{"1"}, ids(Filter{Search: "sok s"}.Apply(regs)))
	require.Equal(t, []string{"1"}, ids(Filter{Search: "SOPHEA"}.Apply(regs)))
	require.Equal(t, []string{"2"}, ids(Filter{Search: "ចាន់"}.Apply(regs)))
	require.Equal(t, []string{"3"}, ids(Filter{Search: "011222"}.Apply(regs)))
	require.Empty(t, Filter{Search: "nobody"}.Apply(regs))
	require.Equal(t, []string{"1", "2", "3"}, ids(Filter{}.Apply(regs)))
}

func TestFilterFacetsCombine(t *testing.T) {
	regs := sampleRegs()

	require.Equal(t, []string{"2", "3"}, ids(Filter{Gender: model.GenderMale}.Apply(regs)))
	require.Equal(t, []string{"3"}, ids(Filter{Gender: model.GenderMale, TShirtSize: "M"}.Apply(regs)))
	require.Equal(t, []string{"1", "2"}, ids(Filter{Stake: "ស្តេកខាងត្បូង"}.Apply(regs)))
	require.Equal(t, []string{"2"}, ids(Filter{Stake: "ស្តេកខាងត្បូង", Ward: "វួដស្ទឹងមានជ័យ"}.Apply(regs)))
}

func TestPaginate(t *testing.T) {
	regs := make([]model.Registration, 0, PageSize+3)
	for i := 0; i < PageSize+3; i++ {
		regs = append(regs, model.Registration{ID: fmt.Sprintf("r%d", i)})
	}

	page1, total := Paginate(regs, 1)
	require.Equal(t, 2, total)
	require.Len(t, page1, PageSize)
	require.Equal(t, "r0", page1[0].ID)

	page2, _ := Paginate(regs, 2)
	require.Len(t, page2, 3)
	require.Equal(t, fmt.Sprintf("r%d", PageSize), page2[0].ID)

	empty, total := Paginate(nil, 1)
	require.Equal(t, 1, total)
	require.Empty(t, empty)

	out, _ := Paginate(regs, 3)
	require.Empty(t, out)
	out, _ = Paginate(regs, 0)
	require.Empty(t, out)
}

func TestKhmerNumerals(t *testing.T) {
	require.Equal(t, "០", KhmerNumerals(0))
	require.Equal(t, "៥០", KhmerNumerals(50))
	require.Equal(t, "២៥០", KhmerNumerals(250))
	require.Equal(t, "១៩៩៩", KhmerNumerals(1999))
}
