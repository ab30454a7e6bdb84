package matching

import (
	"runtime"
	"sort"
	"sync"

	"lendermatch-workers/internal/models"
)

// parallelThreshold is the population size above which per-lender evaluation
// fans out across goroutines. Evaluation is independent per lender; results
// land in per-index slots, so the fan-out stays deterministic.
const parallelThreshold = 256

// Rank filters the lender population through hard elimination, scores every
// survivor, and returns the results sorted by descending match score. Equal
// scores keep their input order (stable sort), so repeated runs over the same
// input produce identical output. An empty population or one with no survivors
// yields an empty, non-nil slice.
func Rank(loan *models.LoanApplication, lenders []models.LenderProfile) []models.MatchResult {
	evals := make([]*models.MatchResult, len(lenders))

	if len(lenders) >= parallelThreshold {
		evaluateParallel(loan, lenders, evals)
	} else {
		for i := range lenders {
			evals[i] = evaluate(loan, &lenders[i])
		}
	}

	results := make([]models.MatchResult, 0, len(lenders))
	for _, r := range evals {
		if r != nil {
			results = append(results, *r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	return results
}

func evaluate(loan *models.LoanApplication, lender *models.LenderProfile) *models.MatchResult {
	if !PassesHardElimination(loan, lender) {
		return nil
	}
	breakdown, score := ScoreLender(loan, lender)
	return &models.MatchResult{
		Lender:         lender,
		MatchScore:     score,
		MatchBreakdown: breakdown,
	}
}

func evaluateParallel(loan *models.LoanApplication, lenders []models.LenderProfile, evals []*models.MatchResult) {
	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				evals[i] = evaluate(loan, &lenders[i])
			}
		}()
	}

	for i := range lenders {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}
