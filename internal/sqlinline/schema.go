package sqlinline

const QCreateCreditBalances = `--sql 3f6c1a9e-4b72-4d1c-8a5e-9f0d2b7c4a11
create table if not exists credit_balances (
    user_id    text primary key,
    balance    int not null default 0 check (balance >= 0),
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreatePurchases = `--sql 8d2e5b70-1c43-4f6a-b9d8-0e7a3c5f2b46
create table if not exists purchases (
    session_id text primary key,
    user_id    text not null,
    credits    int not null check (credits > 0),
    country    text not null default '',
    created_at timestamptz not null default now()
);
`
