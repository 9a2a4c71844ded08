package miniyaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Empty_ReturnsEmptyMapping(t *testing.T) {
	m := Parse("")
	require.NotNil(t, m)
	require.Empty(t, m)
}

func TestParse_ScalarLines_PreservesSourceOrder(t *testing.T) {
	m := Parse("title: Morning Routine\nslug: morning-routine\ncategory: habits\n")

	require.Equal(t, Mapping{
		{Key: "title", Value: Scalar("Morning Routine")},
		{Key: "slug", Value: Scalar("morning-routine")},
		{Key: "category", Value: Scalar("habits")},
	}, m)
}

func TestParse_QuotedAndBareValues_StoreIdentically(t *testing.T) {
	require.Equal(t, "hello", Parse(`key: "hello"`).String("key"))
	require.Equal(t, "hello", Parse(`key: 'hello'`).String("key"))
	require.Equal(t, "hello", Parse(`key: hello`).String("key"))
}

func TestParse_MismatchedQuotes_KeptVerbatim(t *testing.T) {
	// Only a matching pair at both ends is stripped, and only one pair.
	require.Equal(t, `"hello'`, Parse(`key: "hello'`).String("key"))
	require.Equal(t, `"hello`, Parse(`key: "hello`).String("key"))
	require.Equal(t, `""x""`, Parse(`key: """x"""`).String("key"))
	require.Equal(t, `"`, Parse(`key: "`).String("key"))
}

func TestParse_ValueWithColon_SplitsOnFirstColonOnly(t *testing.T) {
	m := Parse("time: 07:30\n")
	require.Equal(t, "07:30", m.String("time"))
}

func TestParse_CommentsAndBlankLines_Skipped(t *testing.T) {
	input := "# about page\n\ntitle: About\n\n# trailing note\n"
	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "title", Value: Scalar("About")},
	}, m)
}

func TestParse_MultilineBlock_JoinsLinesWithNewlines(t *testing.T) {
	input := "bio: |\n  Line one.\n\n  Line two.\n"
	m := Parse(input)

	require.Equal(t, "Line one.\n\nLine two.", m.String("bio"))
}

func TestParse_MultilineBlock_ClosedByDedentedLine(t *testing.T) {
	input := "bio: |\n  First.\n  Second.\nname: Sam\n"
	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "bio", Value: Scalar("First.\nSecond.")},
		{Key: "name", Value: Scalar("Sam")},
	}, m)
}

func TestParse_MultilineBlock_ClosedByEndOfInput(t *testing.T) {
	m := Parse("notes: |\n  only line")
	require.Equal(t, "only line", m.String("notes"))
}

func TestParse_MultilineBlock_DiscardsValueBeforePipe(t *testing.T) {
	// Anything between the colon and the pipe never reaches the result.
	m := Parse("bio: ignored |\n  kept\n")
	require.Equal(t, "kept", m.String("bio"))
}

func TestParse_ListOfRecords_BuildsRecordPerDash(t *testing.T) {
	input := "stats:\n" +
		"  - number: \"500\"\n" +
		"    label: \"Workouts\"\n" +
		"  - number: \"10\"\n" +
		"    label: \"Years\"\n"

	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "stats", Value: List{
			Mapping{{Key: "number", Value: Scalar("500")}, {Key: "label", Value: Scalar("Workouts")}},
			Mapping{{Key: "number", Value: Scalar("10")}, {Key: "label", Value: Scalar("Years")}},
		}},
	}, m)
}

func TestParse_PlainListItems_BecomeTextRecords(t *testing.T) {
	input := "links:\n  - https://example.com/feed\n  - \"https://example.com/about\"\n"
	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "links", Value: List{
			Mapping{{Key: "text", Value: Scalar("https://example.com/feed")}},
			Mapping{{Key: "text", Value: Scalar("https://example.com/about")}},
		}},
	}, m)
}

func TestParse_MixedList_PlainEntryLandsBeforeOpenRecord(t *testing.T) {
	// A plain entry appends immediately while a key:value record stays open
	// until the next record begins or the list ends, so the plain entry ends
	// up ahead of the record that precedes it in the source.
	input := "items:\n  - name: first\n  - plain\n  - name: second\n"
	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "items", Value: List{
			Mapping{{Key: "text", Value: Scalar("plain")}},
			Mapping{{Key: "name", Value: Scalar("first")}},
			Mapping{{Key: "name", Value: Scalar("second")}},
		}},
	}, m)
}

func TestParse_ContinuationBelowFourColumns_StoredAtTopLevel(t *testing.T) {
	// Continuation merging requires four columns of indentation. A shallower
	// key:value line is handled as an ordinary scalar line instead.
	input := "stats:\n  - number: 500\n  label: Workouts\n"
	m := Parse(input)

	require.Equal(t, "Workouts", m.String("label"))
	require.Equal(t, List{
		Mapping{{Key: "number", Value: Scalar("500")}},
	}, m.ListOf("stats"))
}

func TestParse_ListTerminatedByTopLevelKeyLine(t *testing.T) {
	input := "tags:\n  - strength\nauthor: Sam\n"
	m := Parse(input)

	require.Equal(t, Mapping{
		{Key: "tags", Value: List{
			Mapping{{Key: "text", Value: Scalar("strength")}},
		}},
		{Key: "author", Value: Scalar("Sam")},
	}, m)
}

func TestParse_PendingKeyWithNoItems_CommitsEmptyList(t *testing.T) {
	m := Parse("tags:\nauthor: Sam\n")

	require.Equal(t, Mapping{
		{Key: "tags", Value: List{}},
		{Key: "author", Value: Scalar("Sam")},
	}, m)
}

func TestParse_ListItemsWithoutPendingKey_Dropped(t *testing.T) {
	m := Parse("- orphan\n- another\ntitle: About\n")

	require.Equal(t, Mapping{
		{Key: "title", Value: Scalar("About")},
	}, m)
}

func TestParse_DuplicateKey_UpdatesValueKeepsPosition(t *testing.T) {
	m := Parse("a: one\nb: two\na: three\n")

	require.Equal(t, Mapping{
		{Key: "a", Value: Scalar("three")},
		{Key: "b", Value: Scalar("two")},
	}, m)
}

func TestParse_LinesWithoutColon_ContributeNothing(t *testing.T) {
	m := Parse("just some prose\ntitle: About\nmore prose\n")

	require.Equal(t, Mapping{
		{Key: "title", Value: Scalar("About")},
	}, m)
}

func TestParse_BlockScalarBetweenListItems_ListSurvives(t *testing.T) {
	input := "stats:\n" +
		"  - number: 500\n" +
		"  note: |\n" +
		"    aside\n" +
		"  - number: 10\n"

	m := Parse(input)

	require.Equal(t, "aside", m.String("note"))
	require.Equal(t, List{
		Mapping{{Key: "number", Value: Scalar("500")}},
		Mapping{{Key: "number", Value: Scalar("10")}},
	}, m.ListOf("stats"))
}

func TestParse_CRLFInput_ValuesUnaffected(t *testing.T) {
	m := Parse("title: About\r\nbio: |\r\n  Line one.\r\n  Line two.\r\n")

	require.Equal(t, "About", m.String("title"))
	require.Equal(t, "Line one.\nLine two.", m.String("bio"))
}
