package keyword

// smallCorpus is shared by the keyword and ranking tests of this package.
var smallCorpus = []string{
	"Tamo le plus beau",
	"kefir le bon petit chien",
	"kefir le beau chien",
	"tamo est très beau aussi",
	"le plus beau c'est kefir",
	"mais il est un peu con",
	"le petit kefir",
	"kefirounet se prends pour un poney",
	"kefirounet a un gros nez",
	"kefir est un demi poney",
	"le double kef",
	"les keftas c'est bon aussi",
}
