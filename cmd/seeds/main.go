package main

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jhchabran/broadsheet"
	"github.com/jhchabran/broadsheet/authentication"
	"github.com/jhchabran/broadsheet/cmd"
	"github.com/jhchabran/broadsheet/pgstore"
)

var users = []string{"tintin", "milou", "haddock", "castafiore", "tournesol"}
var subreddits = []string{"space", "cosmos", "astronomy"}

var lorem = `Globular star cluster star stuff harvesting star light gathered by gravity take root and flourish vastness is bearable only through love Orion's sword. The only home we've ever known a still more glorious dawn awaits hearts of the stars culture a mote of dust suspended in a sunbeam a mote of dust suspended in a sunbeam. Courage of our questions two ghostly white figures in coveralls and helmets are softly dancing tingling of the spine courage of our questions made in the interiors of collapsing stars hearts of the stars.
Dispassionate extraterrestrial observer consciousness cosmic ocean preserve and cherish that pale blue dot brain is the seed of intelligence Hypatia? Circumnavigated the sky calls to us courage of our questions hearts of the stars take root and flourish how far away. Tendrils of gossamer clouds rich in heavy atoms vanquish the impossible another world with pretty stories for which there's little good evidence rich in heavy atoms?
Rogue white dwarf ship of the imagination of brilliant syntheses gathered by gravity from which we spring. Astonishment extraordinary claims require extraordinary evidence a mote of dust suspended in a sunbeam paroxysm of global death intelligent beings. Network of wormholes concept of the number one network of wormholes rich in heavy atoms the only home we've ever known realm of the galaxies.
Of brilliant syntheses culture the carbon in our apple pies something incredible is waiting to be known light years the only home we've ever known. Rings of Uranus paroxysm of global death laws of physics are creatures of the cosmos take root and flourish prime number. Extraplanetary Orion's sword permanence of the stars rich in heavy atoms invent the universe a still more glorious dawn awaits?
Quasar vastness is bearable only through love prime number dispassionate extraterrestrial observer Vangelis brain is the seed of intelligence. Muse about a very small stage in a vast cosmic arena the ash of stellar alchemy something incredible is waiting to be known Sea of Tranquility? Concept of the number one Tunguska event hearts of the stars descended from astronomers extraordinary claims require extraordinary evidence hydrogen atoms.
We are the legacy of 15 billion years of cosmic evolution. We have a choice. We can enhance life and come to know the universe that made us, or we can squander our 15 billion year heritage in meaningless self-destruction.
`

func breakLorem() []string {
	strs := regexp.MustCompile("[!?.] ").Split(lorem, -1)
	var res []string
	for _, s := range strs {
		r := strings.TrimSpace(s)
		if len(r) > 50 {
			idx := 0
			for i, r := range s[50:] {
				if r == ' ' {
					idx = i
					break
				}
			}

			r = s[0 : 50+idx]
		}
		if len(r) >= broadsheet.MinTitleLen {
			res = append(res, r)
		}
	}

	return res
}

func main() {
	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)
	logger.Info().Msg("Seeding database")

	// setup database
	pg := pgstore.New(cfg.DatabaseString())
	err = pg.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't connect to database")
	}

	// We're going to break the lorem string into multiple pieces, turn them
	// into posts whose authors are newly created users.
	strs := breakLorem()

	hash, err := authentication.HashPassword("password")
	if err != nil {
		log.Fatal().Err(err).Msg("Can't hash seed password")
	}
	for _, u := range users {
		user := broadsheet.NewUser(u)
		user.PasswordHash = hash
		err := pg.CreateUser(user)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create user")
		}
	}

	for i, name := range subreddits {
		sub, err := broadsheet.NewSubreddit(name)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't build subreddit")
		}
		err = pg.CreateSubreddit(sub, users[i%len(users)])
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create subreddit")
		}
	}

	// let's now add the posts
	var posts []*broadsheet.Entry
	for i, title := range strs {
		author := users[i%len(users)]
		name := subreddits[i%len(subreddits)]
		post, err := broadsheet.NewPost(name, author, title, "Space is big. Really big. "+title)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't build post")
		}
		err = pg.InsertEntry(post)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create post")
		}

		posts = append(posts, post)
	}

	// let's add some comments and votes on the posts
	for i, post := range posts {
		author := users[(i+1)%len(users)]
		body := strs[i%len(strs)]

		comment, err := broadsheet.NewComment(post.ID, author, body)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't build comment")
		}
		err = pg.InsertEntry(comment)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create comment")
		}

		for j := 0; j < i%4; j++ {
			voter := users[(i+j+1)%len(users)]
			err := pg.CastVote(post.ID, voter, j%3 != 0)
			if err != nil {
				log.Fatal().Err(err).Msg("Can't cast vote")
			}
		}
	}

	logger.Info().Int("posts", len(posts)).Msg("Done")
}
