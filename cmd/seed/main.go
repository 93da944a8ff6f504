// Command seed loads the static verse catalog into the database. Safe
// to run repeatedly: verses are inserted with conflict-ignore, so
// existing rows are left untouched.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"palavraviva/internal/util"
	"palavraviva/pkg/domain"
	"palavraviva/pkg/store"
)

var catalog = []domain.Verse{
	{ID: "seed-sl-23-1", Book: "Salmos", Chapter: 23, Verse: 1, Order: 1,
		Text:    "O Senhor é o meu pastor; nada me faltará.",
		Summary: "Confiança no cuidado constante de Deus, que supre cada necessidade."},
	{ID: "seed-jo-3-16", Book: "João", Chapter: 3, Verse: 16, Order: 2,
		Text:    "Porque Deus amou o mundo de tal maneira que deu o seu Filho unigênito, para que todo aquele que nele crê não pereça, mas tenha a vida eterna.",
		Summary: "O amor de Deus expresso na entrega de Jesus por toda a humanidade."},
	{ID: "seed-fp-4-13", Book: "Filipenses", Chapter: 4, Verse: 13, Order: 3,
		Text:    "Posso todas as coisas naquele que me fortalece.",
		Summary: "A força para enfrentar qualquer circunstância vem de Cristo."},
	{ID: "seed-pv-3-5", Book: "Provérbios", Chapter: 3, Verse: 5, Order: 4,
		Text:    "Confia no Senhor de todo o teu coração e não te estribes no teu próprio entendimento.",
		Summary: "Convite a confiar plenamente em Deus acima da própria compreensão."},
	{ID: "seed-is-41-10", Book: "Isaías", Chapter: 41, Verse: 10, Order: 5,
		Text:    "Não temas, porque eu sou contigo; não te assombres, porque eu sou o teu Deus; eu te fortaleço, e te ajudo, e te sustento com a minha destra fiel.",
		Summary: "Promessa de presença e sustento divino em meio ao medo."},
	{ID: "seed-rm-8-28", Book: "Romanos", Chapter: 8, Verse: 28, Order: 6,
		Text:    "E sabemos que todas as coisas contribuem juntamente para o bem daqueles que amam a Deus, daqueles que são chamados por seu decreto.",
		Summary: "A certeza de que Deus age em todas as circunstâncias para o bem dos seus."},
	{ID: "seed-js-1-9", Book: "Josué", Chapter: 1, Verse: 9, Order: 7,
		Text:    "Não to mandei eu? Esforça-te e tem bom ânimo; não pasmes, nem te espantes, porque o Senhor, teu Deus, é contigo por onde quer que andares.",
		Summary: "Coragem e ânimo fundados na companhia de Deus em todo caminho."},
}

func main() {
	_ = godotenv.Load()
	logger := util.InitLogger(os.Getenv("LOG_LEVEL"))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	dataStore, err := store.NewGormStore(databaseURL)
	if err != nil {
		logger.Error("init postgres store", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	for _, verse := range catalog {
		verse.CreatedAt = now
		if err := dataStore.SaveVerse(verse); err != nil {
			logger.Error("seed verse", "id", verse.ID, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("verse catalog seeded", "count", len(catalog))
}
