package sqlinline

// QEnsureAccount creates a balance row on first contact. The initial balance
// is the configured free-trial grant (zero by default); re-inserts are no-ops.
const QEnsureAccount = `--sql a1b4c7d0-2e35-4869-9c1f-5d8e0b3a6f92
insert into credit_balances(user_id, balance)
values ($1::text, $2::int)
on conflict (user_id) do nothing;
`

const QSelectBalance = `--sql c9e2f5a8-7b10-4d4c-a3e6-1f4b7d0c3e85
select balance from credit_balances where user_id = $1::text;
`

// QDebitBalance performs the atomic check-and-decrement. It matches only
// when the balance covers the amount, so two concurrent debits can never
// drive a balance negative; the loser simply updates zero rows.
const QDebitBalance = `--sql e7a0d3b6-9c52-4f7e-b1a4-8d2f5c8e1b37
update credit_balances
set balance = balance - $2::int, updated_at = now()
where user_id = $1::text and balance >= $2::int
returning balance;
`

const QCreditBalance = `--sql b5d8e1f4-0a63-4c2d-9e7b-6c0a3f6d9e24
update credit_balances
set balance = balance + $2::int, updated_at = now()
where user_id = $1::text
returning balance;
`
