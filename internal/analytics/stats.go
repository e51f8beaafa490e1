package analytics

import (
	"fmt"
	"math"
	"sort"
)

// Plain-Go numerics for the offline fitting pipeline. Everything here
// is deterministic and allocation-light; no external math library.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(n-1)
}

// pearson returns the linear correlation coefficient of two equal-length
// series. Returns 0 when either side has zero variance; callers check
// variance beforehand to distinguish that case.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// ranks assigns average ranks (1-based) with ties sharing their mean rank.
func ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// spearman is Pearson over ranks.
func spearman(x, y []float64) float64 {
	return pearson(ranks(x), ranks(y))
}

// betainc computes the regularized incomplete beta function I_x(a, b)
// using the continued-fraction expansion.
func betainc(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betacf(a, b, x) / a
	}
	return 1 - front*betacf(b, a, 1-x)/b
}

// betacf evaluates the continued fraction for betainc (modified Lentz).
func betacf(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		fpmin   = 1e-300
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpmin {
		d = fpmin
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIter; m++ {
		m2 := float64(2 * m)
		aa := float64(m) * (b - float64(m)) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		h *= d * c
		aa = -(a + float64(m)) * (qab + float64(m)) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

// tCDF is the cumulative distribution of Student's t with df degrees
// of freedom.
func tCDF(t, df float64) float64 {
	if df <= 0 {
		return math.NaN()
	}
	x := df / (df + t*t)
	p := 0.5 * betainc(df/2, 0.5, x)
	if t > 0 {
		return 1 - p
	}
	return p
}

// tPValue is the two-sided p-value for a t statistic.
func tPValue(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	return betainc(df/2, 0.5, df/(df+t*t))
}

// tQuantile inverts tCDF by bisection; p in (0, 1).
func tQuantile(p, df float64) float64 {
	if p <= 0 || p >= 1 {
		return math.NaN()
	}
	lo, hi := -200.0, 200.0
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if tCDF(mid, df) < p {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-10 {
			break
		}
	}
	return (lo + hi) / 2
}

// fPValue is the upper-tail p-value of an F statistic with (d1, d2)
// degrees of freedom.
func fPValue(f, d1, d2 float64) float64 {
	if f <= 0 || d1 <= 0 || d2 <= 0 {
		return 1
	}
	return betainc(d2/2, d1/2, d2/(d2+d1*f))
}

// corrPValue converts a correlation coefficient into a two-sided
// p-value via the t transform.
func corrPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	rr := r * r
	if rr >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-rr))
	return tPValue(t, float64(n-2))
}

// mutualInfo estimates mutual information between two series by
// equal-width binning. Non-negative; captures nonlinear dependence.
func mutualInfo(x, y []float64, bins int) float64 {
	n := len(x)
	if n == 0 || n != len(y) || bins < 2 {
		return 0
	}
	bx := binIndices(x, bins)
	by := binIndices(y, bins)

	joint := make([]float64, bins*bins)
	px := make([]float64, bins)
	py := make([]float64, bins)
	for i := 0; i < n; i++ {
		joint[bx[i]*bins+by[i]]++
		px[bx[i]]++
		py[by[i]]++
	}
	fn := float64(n)
	var mi float64
	for i := 0; i < bins; i++ {
		for j := 0; j < bins; j++ {
			pij := joint[i*bins+j] / fn
			if pij == 0 {
				continue
			}
			mi += pij * math.Log(pij/((px[i]/fn)*(py[j]/fn)))
		}
	}
	if mi < 0 {
		mi = 0
	}
	return mi
}

// normalizedMI scales mutual information into [0, 1] by the geometric
// mean of the marginal entropies.
func normalizedMI(x, y []float64, bins int) float64 {
	mi := mutualInfo(x, y, bins)
	hx := binEntropy(x, bins)
	hy := binEntropy(y, bins)
	if hx <= 0 || hy <= 0 {
		return 0
	}
	v := mi / math.Sqrt(hx*hy)
	if v > 1 {
		v = 1
	}
	return v
}

func binIndices(xs []float64, bins int) []int {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	out := make([]int, len(xs))
	if hi == lo {
		return out
	}
	w := (hi - lo) / float64(bins)
	for i, x := range xs {
		b := int((x - lo) / w)
		if b >= bins {
			b = bins - 1
		}
		out[i] = b
	}
	return out
}

func binEntropy(xs []float64, bins int) float64 {
	idx := binIndices(xs, bins)
	counts := make([]float64, bins)
	for _, b := range idx {
		counts[b]++
	}
	fn := float64(len(xs))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / fn
		h -= p * math.Log(p)
	}
	return h
}

// anovaF computes the one-way ANOVA F statistic of values grouped by
// category label. Returns F and its degrees of freedom.
func anovaF(values []float64, groups []string) (f float64, d1, d2 float64, err error) {
	if len(values) != len(groups) || len(values) == 0 {
		return 0, 0, 0, fmt.Errorf("anova: mismatched inputs")
	}
	byGroup := make(map[string][]float64)
	for i, g := range groups {
		byGroup[g] = append(byGroup[g], values[i])
	}
	k := len(byGroup)
	n := len(values)
	if k < 2 {
		return 0, 0, 0, fmt.Errorf("anova: need at least two groups")
	}
	if n <= k {
		return 0, 0, 0, fmt.Errorf("anova: too few observations for %d groups", k)
	}
	grand := mean(values)
	var ssBetween, ssWithin float64
	for _, vs := range byGroup {
		gm := mean(vs)
		ssBetween += float64(len(vs)) * (gm - grand) * (gm - grand)
		for _, v := range vs {
			ssWithin += (v - gm) * (v - gm)
		}
	}
	d1 = float64(k - 1)
	d2 = float64(n - k)
	if ssWithin == 0 {
		return math.Inf(1), d1, d2, nil
	}
	return (ssBetween / d1) / (ssWithin / d2), d1, d2, nil
}

// solveLinear solves A x = b in place via Gaussian elimination with
// partial pivoting. A is row-major n x n.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular matrix at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < n; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, nil
}

// independentColumns returns the indices of the linearly independent
// columns of the design matrix [1 | rows], scanned left to right by
// modified Gram-Schmidt. Column 0 is the intercept and is always kept;
// a later column is dropped when its residual against the kept basis
// falls below 1e-8 of its original norm. Short windows make this the
// common case: month_sin and month_cos are affine in each other when
// the window spans two calendar months or fewer.
func independentColumns(rows [][]float64) []int {
	n := len(rows)
	if n == 0 {
		return nil
	}
	p := len(rows[0]) + 1

	column := func(j int) []float64 {
		v := make([]float64, n)
		if j == 0 {
			for i := range v {
				v[i] = 1
			}
			return v
		}
		for i := 0; i < n; i++ {
			v[i] = rows[i][j-1]
		}
		return v
	}
	norm := func(v []float64) float64 {
		var s float64
		for _, x := range v {
			s += x * x
		}
		return math.Sqrt(s)
	}

	kept := make([]int, 0, p)
	basis := make([][]float64, 0, p)
	for j := 0; j < p; j++ {
		v := column(j)
		orig := norm(v)
		for _, q := range basis {
			var dot float64
			for i := 0; i < n; i++ {
				dot += q[i] * v[i]
			}
			for i := 0; i < n; i++ {
				v[i] -= dot * q[i]
			}
		}
		resid := norm(v)
		if orig == 0 || resid <= 1e-8*orig {
			continue
		}
		for i := 0; i < n; i++ {
			v[i] /= resid
		}
		basis = append(basis, v)
		kept = append(kept, j)
	}
	return kept
}

// reduceColumns rebuilds the feature rows with only the kept columns.
// kept uses design-matrix indexing, so kept[0] == 0 is the intercept
// and does not appear in the returned rows.
func reduceColumns(rows [][]float64, kept []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		r := make([]float64, 0, len(kept)-1)
		for _, k := range kept {
			if k == 0 {
				continue
			}
			r = append(r, row[k-1])
		}
		out[i] = r
	}
	return out
}

// expandCoefs scatters coefficients fitted on the kept columns back to
// the full design width p; dropped columns get zero.
func expandCoefs(coefs []float64, kept []int, p int) []float64 {
	full := make([]float64, p)
	for a, k := range kept {
		full[k] = coefs[a]
	}
	return full
}

// olsResult holds a least-squares fit. Coefs[0] is the intercept.
type olsResult struct {
	Coefs    []float64
	StdErrs  []float64
	RSquared float64
	Sigma2   float64
	DF       int
}

// olsFit fits y = b0 + b1*x1 + ... by ordinary least squares.
// rows is the design matrix without the intercept column. Collinear
// columns are pruned before the solve; their coefficients and standard
// errors come back as zero so indices into Coefs stay stable.
func olsFit(rows [][]float64, y []float64) (*olsResult, error) {
	n := len(rows)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("ols: mismatched inputs")
	}
	p := len(rows[0]) + 1
	kept := independentColumns(rows)
	fitRows := reduceColumns(rows, kept)
	q := len(kept)
	if n <= q {
		return nil, fmt.Errorf("ols: need more than %d rows, got %d", q, n)
	}

	// normal equations X'X b = X'y with X = [1 | fitRows]
	xtx := make([][]float64, q)
	for i := range xtx {
		xtx[i] = make([]float64, q)
	}
	xty := make([]float64, q)
	xrow := make([]float64, q)
	for r := 0; r < n; r++ {
		xrow[0] = 1
		copy(xrow[1:], fitRows[r])
		for i := 0; i < q; i++ {
			xty[i] += xrow[i] * y[r]
			for j := i; j < q; j++ {
				xtx[i][j] += xrow[i] * xrow[j]
			}
		}
	}
	for i := 0; i < q; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	// keep a copy for the covariance inverse
	xtxCopy := make([][]float64, q)
	for i := range xtxCopy {
		xtxCopy[i] = append([]float64(nil), xtx[i]...)
	}

	coefs, err := solveLinear(xtx, append([]float64(nil), xty...))
	if err != nil {
		return nil, fmt.Errorf("ols solve: %w", err)
	}

	ym := mean(y)
	var ssRes, ssTot float64
	for r := 0; r < n; r++ {
		pred := coefs[0]
		for j, v := range fitRows[r] {
			pred += coefs[j+1] * v
		}
		ssRes += (y[r] - pred) * (y[r] - pred)
		ssTot += (y[r] - ym) * (y[r] - ym)
	}
	df := n - q
	sigma2 := ssRes / float64(df)

	// standard errors from sigma2 * (X'X)^-1 diagonal, column by column
	stderrs := make([]float64, q)
	for j := 0; j < q; j++ {
		e := make([]float64, q)
		e[j] = 1
		ai := make([][]float64, q)
		for i := range ai {
			ai[i] = append([]float64(nil), xtxCopy[i]...)
		}
		col, err := solveLinear(ai, e)
		if err != nil {
			return nil, fmt.Errorf("ols covariance: %w", err)
		}
		stderrs[j] = math.Sqrt(sigma2 * col[j])
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return &olsResult{
		Coefs:    expandCoefs(coefs, kept, p),
		StdErrs:  expandCoefs(stderrs, kept, p),
		RSquared: r2,
		Sigma2:   sigma2,
		DF:       df,
	}, nil
}

// percentile returns the p-th percentile (0..100) of xs by linear
// interpolation. xs is copied and sorted.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// Percentile returns the p-th percentile (0..100) of xs by linear
// interpolation. Exposed for the rate window aggregator.
func Percentile(xs []float64, p float64) float64 {
	return percentile(xs, p)
}
