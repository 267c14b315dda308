package generator

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

// fakerFunc produces one value per call.
type fakerFunc func(f *faker) string

type faker struct {
	rand    *rand.Rand
	counter int
}

var fakers = map[string]fakerFunc{
	"name":       (*faker).name,
	"first_name": (*faker).firstName,
	"last_name":  (*faker).lastName,
	"email":      (*faker).email,
	"title":      (*faker).title,
	"sentence":   (*faker).sentence,
	"word":       (*faker).word,
	"url":        (*faker).url,
	"phone":      (*faker).phone,
	"address":    (*faker).address,
	"uuid":       (*faker).uuid,
}

// FakerNames lists the named value functions.
func FakerNames() []string {
	names := make([]string, 0, len(fakers))
	for name := range fakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	firstNames = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	domains    = []string{"example.com", "test.com", "demo.com", "mail.com"}
	titles     = []string{
		"Quarterly Sales Report",
		"Customer Onboarding Checklist",
		"Warehouse Inventory Summary",
		"Delivery Schedule Update",
		"Annual Budget Review",
		"Supplier Contract Draft",
	}
	sentences = []string{
		"Order was delivered to the front desk.",
		"Customer asked to reschedule the visit.",
		"Payment is pending bank confirmation.",
		"Item returned in original packaging.",
		"Invoice was sent by email.",
	}
	words = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
)

func (f *faker) firstName() string { return firstNames[f.rand.Intn(len(firstNames))] }
func (f *faker) lastName() string  { return lastNames[f.rand.Intn(len(lastNames))] }
func (f *faker) name() string      { return f.firstName() + " " + f.lastName() }
func (f *faker) title() string     { return titles[f.rand.Intn(len(titles))] }
func (f *faker) sentence() string  { return sentences[f.rand.Intn(len(sentences))] }
func (f *faker) word() string      { return words[f.rand.Intn(len(words))] }

func (f *faker) email() string {
	f.counter++
	return fmt.Sprintf("user%d_%d@%s", f.counter, f.rand.Intn(100000), domains[f.rand.Intn(len(domains))])
}

func (f *faker) url() string {
	return fmt.Sprintf("https://example.com/page/%d", f.rand.Intn(1000))
}

func (f *faker) phone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", f.rand.Intn(1000), f.rand.Intn(1000), f.rand.Intn(10000))
}

func (f *faker) address() string {
	return fmt.Sprintf("%d Main Street, City, State %05d", f.rand.Intn(9999)+1, f.rand.Intn(100000))
}

func (f *faker) uuid() string {
	id, err := uuid.NewRandomFromReader(f.rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
