package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `name,mana_cost,types,subtypes,supertypes,rules,is_token,deck,quantity,commander
Atraxa,{G}{W}{U}{B},Creature,Phyrexian Angel Horror,Legendary,Flying,false,superfriends,1,true
Forest,,Land,Forest,Basic,,false,superfriends,30,false
Sol Ring,{1},Artifact,,,,false,superfriends,,false
Goblin,,Creature,Goblin,Token,,true,,,
,{U},Instant,,,,false,,,
`

func TestParse(t *testing.T) {
	cat, warnings, err := Parse(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, cat.Records, 4)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "line 6")

	atraxa := cat.Records[0].Card
	assert.Equal(t, "Legendary Creature — Phyrexian Angel Horror", atraxa.TypeLine)
	assert.Equal(t, "Flying", atraxa.OracleText)
	assert.True(t, cat.Records[3].Card.IsToken)

	require.Len(t, cat.Decks, 1)
	deck := cat.Decks[0]
	assert.Equal(t, "superfriends", deck.Name)
	assert.Equal(t, []DeckEntry{{Record: 0, Quantity: 1}, {Record: 1, Quantity: 30}, {Record: 2, Quantity: 1}}, deck.Entries)
	assert.Equal(t, []int{0}, deck.Commanders)
}

func TestParseTypeLineColumn(t *testing.T) {
	cat, _, err := Parse(strings.NewReader("Name,Type_Line\nSwamp,Basic Land — Swamp\n"))
	require.NoError(t, err)
	assert.Equal(t, "Basic Land — Swamp", cat.Records[0].Card.TypeLine)
}

func TestParseErrors(t *testing.T) {
	_, _, err := Parse(strings.NewReader(""))
	assert.Error(t, err)

	_, _, err = Parse(strings.NewReader("mana_cost\n{1}\n"))
	assert.ErrorContains(t, err, `"name"`)
}

func TestParseInvalidQuantity(t *testing.T) {
	cat, warnings, err := Parse(strings.NewReader("name,deck,quantity\nIsland,mono blue,many\n"))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, cat.Decks[0].Entries[0].Quantity)
}

func TestResolve(t *testing.T) {
	cat, _, err := Parse(strings.NewReader(export))
	require.NoError(t, err)

	decks, err := cat.Resolve([]int64{10, 11, 12, 13})
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, []int64{10}, decks[0].CommanderIDs)
	assert.Equal(t, int64(11), decks[0].Cards[1].CardID)
	assert.Equal(t, 30, decks[0].Cards[1].Quantity)

	_, err = cat.Resolve([]int64{1})
	assert.Error(t, err)
}

func TestBuildTypeLine(t *testing.T) {
	assert.Equal(t, "Artifact", BuildTypeLine("Artifact", "", ""))
	assert.Equal(t, "Creature — Elf", BuildTypeLine("Creature", "Elf", ""))
	assert.Equal(t, "", BuildTypeLine("", "", ""))
}
